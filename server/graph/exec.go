package graph

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/sig-0/bankrates/server/graph/model"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphqls",
	Input: schemaSource,
})

var (
	errUnsupportedOperation = errors.New("unsupported GraphQL operation")
	errUnsupportedField     = errors.New("introspection is not supported, see /graphql/schema.graphqls")
)

type QueryResolver interface {
	Rates(ctx context.Context) ([]*model.BankRate, error)
	Rate(ctx context.Context, bank string) (*model.BankRate, error)
	BestRate(ctx context.Context, currency model.Currency, operation model.Operation) (*model.BestRate, error)
}

type ResolverRoot interface {
	Query() QueryResolver
}

// Config is the executable schema configuration
type Config struct {
	Resolvers ResolverRoot
}

// NewExecutableSchema creates the executable rates schema,
// served by the gqlgen handler
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{
		resolvers: cfg.Resolvers,
	}
}

type executableSchema struct {
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(
	_ context.Context,
	_, _ string,
	_ int,
	_ map[string]any,
) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	if opCtx.Operation.Operation != ast.Query {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "%s", errUnsupportedOperation.Error()))
	}

	ec := &executionContext{
		opCtx:     opCtx,
		resolvers: e.resolvers,
	}

	first := true

	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}

		first = false

		var buf bytes.Buffer

		ec.query(ctx).MarshalGQL(&buf)

		return &graphql.Response{
			Data: buf.Bytes(),
		}
	}
}

// executionContext resolves a single query operation
type executionContext struct {
	opCtx     *graphql.OperationContext
	resolvers ResolverRoot
}

// query resolves the root selection. A failing non-null
// root field nulls the whole response data
func (ec *executionContext) query(ctx context.Context) graphql.Marshaler {
	fields := graphql.CollectFields(ec.opCtx, ec.opCtx.Operation.SelectionSet, []string{"Query"})
	out := newObject(len(fields))

	for _, field := range fields {
		path := ast.Path{ast.PathName(field.Alias)}

		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("Query"))
		case "rates":
			res, err := ec.resolvers.Query().Rates(ctx)
			if err != nil {
				ec.addError(ctx, path, err)

				return graphql.Null
			}

			list := make(graphql.Array, 0, len(res))

			for _, rate := range res {
				list = append(list, ec.bankRate(rate, field.Selections))
			}

			out.add(field.Alias, list)
		case "rate":
			args := field.ArgumentMap(ec.opCtx.Variables)

			bank, err := graphql.UnmarshalString(args["bank"])
			if err != nil {
				ec.addError(ctx, path, err)
				out.add(field.Alias, graphql.Null)

				continue
			}

			res, err := ec.resolvers.Query().Rate(ctx, bank)
			if err != nil {
				ec.addError(ctx, path, err)
				out.add(field.Alias, graphql.Null)

				continue
			}

			out.add(field.Alias, ec.bankRate(res, field.Selections))
		case "bestRate":
			res, err := ec.bestRate(ctx, field)
			if err != nil {
				ec.addError(ctx, path, err)
				out.add(field.Alias, graphql.Null)

				continue
			}

			out.add(field.Alias, ec.bestRateObject(res, field.Selections))
		default:
			ec.addError(ctx, path, errUnsupportedField)

			return graphql.Null
		}
	}

	return out
}

func (ec *executionContext) bestRate(ctx context.Context, field graphql.CollectedField) (*model.BestRate, error) {
	args := field.ArgumentMap(ec.opCtx.Variables)

	var (
		currency  model.Currency
		operation model.Operation
	)

	if err := currency.UnmarshalGQL(args["currency"]); err != nil {
		return nil, err
	}

	if err := operation.UnmarshalGQL(args["operation"]); err != nil {
		return nil, err
	}

	return ec.resolvers.Query().BestRate(ctx, currency, operation)
}

func (ec *executionContext) bankRate(rate *model.BankRate, sel ast.SelectionSet) graphql.Marshaler {
	if rate == nil {
		return graphql.Null
	}

	fields := graphql.CollectFields(ec.opCtx, sel, []string{"BankRate"})
	out := newObject(len(fields))

	for _, field := range fields {
		var value graphql.Marshaler

		switch field.Name {
		case "__typename":
			value = graphql.MarshalString("BankRate")
		case "id":
			value = graphql.MarshalID(rate.ID)
		case "bankKey":
			value = graphql.MarshalString(rate.BankKey)
		case "bankName":
			value = graphql.MarshalString(rate.BankName)
		case "sourceUrl":
			value = graphql.MarshalString(rate.SourceURL)
		case "observedAt":
			value = graphql.MarshalString(rate.ObservedAt)
		case "usdBuy":
			value = graphql.MarshalFloat(rate.UsdBuy)
		case "usdSell":
			value = graphql.MarshalFloat(rate.UsdSell)
		case "eurBuy":
			value = graphql.MarshalFloat(rate.EurBuy)
		case "eurSell":
			value = graphql.MarshalFloat(rate.EurSell)
		case "createdAt":
			value = model.MarshalTime(rate.CreatedAt)
		case "updatedAt":
			value = model.MarshalTime(rate.UpdatedAt)
		default:
			value = graphql.Null
		}

		out.add(field.Alias, value)
	}

	return out
}

func (ec *executionContext) bestRateObject(best *model.BestRate, sel ast.SelectionSet) graphql.Marshaler {
	if best == nil {
		return graphql.Null
	}

	fields := graphql.CollectFields(ec.opCtx, sel, []string{"BestRate"})
	out := newObject(len(fields))

	for _, field := range fields {
		var value graphql.Marshaler

		switch field.Name {
		case "__typename":
			value = graphql.MarshalString("BestRate")
		case "currency":
			value = best.Currency
		case "operation":
			value = best.Operation
		case "rate":
			value = graphql.MarshalFloat(best.Rate)
		case "banks":
			banks := make(graphql.Array, 0, len(best.Banks))

			for _, bank := range best.Banks {
				banks = append(banks, graphql.MarshalString(bank))
			}

			value = banks
		default:
			value = graphql.Null
		}

		out.add(field.Alias, value)
	}

	return out
}

func (ec *executionContext) addError(ctx context.Context, path ast.Path, err error) {
	graphql.AddError(ctx, gqlerror.WrapPath(path, err))
}

// object is a response object, keeping the selection order
type object struct {
	keys   []string
	values []graphql.Marshaler
}

func newObject(size int) *object {
	return &object{
		keys:   make([]string, 0, size),
		values: make([]graphql.Marshaler, 0, size),
	}
}

func (o *object) add(key string, value graphql.Marshaler) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *object) MarshalGQL(w io.Writer) {
	_, _ = io.WriteString(w, "{")

	for i, key := range o.keys {
		if i > 0 {
			_, _ = io.WriteString(w, ",")
		}

		graphql.MarshalString(key).MarshalGQL(w)
		_, _ = io.WriteString(w, ":")
		o.values[i].MarshalGQL(w)
	}

	_, _ = io.WriteString(w, "}")
}
