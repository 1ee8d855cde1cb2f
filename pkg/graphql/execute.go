package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// ExecuteQuery runs a query against a schema. The context reaches the
// resolvers, so cancelling it cancels any in-flight store call.
func ExecuteQuery(ctx context.Context, schema graphql.Schema, query string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	})
}

// ExecuteQueryWithVariables runs a parameterized query.
func ExecuteQueryWithVariables(ctx context.Context, schema graphql.Schema, query string, variables map[string]any) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}
