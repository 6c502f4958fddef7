// Package graphql exposes the catalog read-only over GraphQL at /graphql.
package graphql

import (
	_ "embed"

	gql "github.com/graph-gophers/graphql-go"

	"shophub/service/catalog"
)

//go:embed schema.graphqls
var schema string

// NewSchema parses the schema against a resolver over svc.
func NewSchema(svc *catalog.Service) (*gql.Schema, error) {
	return gql.ParseSchema(schema, &RootResolver{catalog: svc}, gql.UseFieldResolvers())
}
