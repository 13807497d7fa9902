package graph

import (
	"github.com/sig-0/bankrates/rates"
	"github.com/sig-0/bankrates/storage"
)

// Resolver holds the dependencies of the query resolvers
type Resolver struct {
	Storage storage.Storage
	Engine  *rates.Engine
}

func NewResolver(s storage.Storage, e *rates.Engine) *Resolver {
	return &Resolver{
		Storage: s,
		Engine:  e,
	}
}

// Query returns the root query resolver
func (r *Resolver) Query() QueryResolver {
	return &queryResolver{r}
}

type queryResolver struct{ *Resolver }
