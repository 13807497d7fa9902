package graph

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/sig-0/bankrates/rates"
	"github.com/sig-0/bankrates/storage"
)

// Setup sets up the read-only GraphQL API on the given mux
func Setup(storage storage.Storage, engine *rates.Engine, m chi.Router) chi.Router {
	srv := handler.New(NewExecutableSchema(
		Config{
			Resolvers: NewResolver(storage, engine),
		},
	))

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})

	m.Handle("/graphql/query", srv)
	m.Get("/graphql/schema.graphqls", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		_, _ = w.Write([]byte(schemaSource)) //nolint:errcheck // Fine to ignore
	})
	m.Handle("/graphql", playground.Handler("bankrates: GraphQL playground", "/graphql/query"))

	return m
}
