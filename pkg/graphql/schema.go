// Package graphql exposes the navigation engine over GraphQL: expand,
// roots and health queries built with graphql-go. Mutations are absent
// on purpose, the service never writes to the store.
package graphql

import (
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/schema"
)

// Config carries the resolvers' collaborators. Both are required.
type Config struct {
	Navigator *explore.Navigator
	Listing   *listing.Engine
}

// Attribute is one raw attribute of a node. Value is null when the
// store holds no binding for it.
type Attribute struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// Group is one bucket of the root listing, ordered by key.
type Group struct {
	Key      string           `json:"key"`
	Entities []listing.Entity `json:"entities"`
}

// RootListing mirrors listing.Result with deterministic group order.
type RootListing struct {
	Groups     []Group `json:"groups"`
	TotalCount int     `json:"totalCount"`
}

// BuildSchema assembles the query schema over the given engines.
func BuildSchema(cfg Config) (graphql.Schema, error) {
	attributeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Attribute",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.Field{Type: graphql.String},
		},
	})

	nodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"kind":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"label":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"expandable": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"attributes": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(attributeType)),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					node, ok := p.Source.(explore.Node)
					if !ok {
						return nil, nil
					}
					return sortedAttributes(node), nil
				},
			},
		},
	})

	entityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Entity",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":         &graphql.Field{Type: graphql.String},
			"type":         &graphql.Field{Type: graphql.String, Resolve: entityField(func(e listing.Entity) *string { return e.Type })},
			"manufacturer": &graphql.Field{Type: graphql.String},
			"desc":         &graphql.Field{Type: graphql.String},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Group",
		Fields: graphql.Fields{
			"key":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"entities": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(entityType)))},
		},
	})

	rootListingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootListing",
		Fields: graphql.Fields{
			"groups":     &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(groupType)))},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"expand": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(nodeType)),
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"kind": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: expandResolver(cfg.Navigator),
			},
			"roots": &graphql.Field{
				Type: rootListingType,
				Args: graphql.FieldConfigArgument{
					"groupBy": &graphql.ArgumentConfig{Type: graphql.String},
					"search":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: rootsResolver(cfg.Listing),
			},
		},
	})

	s, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func expandResolver(nav *explore.Navigator) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		id, _ := p.Args["id"].(string)
		kindArg, _ := p.Args["kind"].(string)
		kind, err := schema.ParseKind(kindArg)
		if err != nil {
			return nil, err
		}
		return nav.Expand(p.Context, id, kind)
	}
}

func rootsResolver(eng *listing.Engine) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		groupByArg, _ := p.Args["groupBy"].(string)
		searchArg, _ := p.Args["search"].(string)
		groupBy, err := listing.ParseGroupBy(groupByArg)
		if err != nil {
			return nil, err
		}
		res, err := eng.List(p.Context, groupBy, searchArg)
		if err != nil {
			return nil, err
		}
		return toRootListing(res), nil
	}
}

func entityField(pick func(listing.Entity) *string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		e, ok := p.Source.(listing.Entity)
		if !ok {
			return nil, nil
		}
		return pick(e), nil
	}
}

// sortedAttributes flattens the attribute map in name order so query
// output is stable across runs.
func sortedAttributes(n explore.Node) []Attribute {
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	attrs := make([]Attribute, len(names))
	for i, name := range names {
		attrs[i] = Attribute{Name: name, Value: n.Attrs[name]}
	}
	return attrs
}

// toRootListing orders groups by key; the map form has no stable order.
func toRootListing(res *listing.Result) *RootListing {
	keys := make([]string, 0, len(res.Groups))
	for key := range res.Groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := &RootListing{
		Groups:     make([]Group, len(keys)),
		TotalCount: res.TotalCount,
	}
	for i, key := range keys {
		out.Groups[i] = Group{Key: key, Entities: res.Groups[key]}
	}
	return out
}
