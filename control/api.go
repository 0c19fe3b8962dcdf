// Package control exposes a running scope over HTTP: a GraphQL API for the
// parameters, a websocket status stream and an mDNS advertisement.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"

	"github.com/peragwin/xyscope/scope"
)

// Backend is the scope as seen from the API. *host.Loop implements it.
type Backend interface {
	Parameters(ctx context.Context) (scope.Parameters, error)
	SetParameters(ctx context.Context, p scope.Parameters) error
	Stats(ctx context.Context) (scope.Stats, error)
	ToggleMode(ctx context.Context) (scope.Mode, error)
}

// API answers GraphQL queries against a Backend.
type API struct {
	backend Backend
	schema  graphql.Schema
}

// NewAPI builds the schema:
//
//	query    { params { ... } status { ... } }
//	mutation { params(params: {...}) { ... } toggleMode }
func NewAPI(b Backend) (*API, error) {
	a := &API{backend: b}

	paramType, inputParamType := NewGraphqlInputType("ParamType", &scope.Parameters{})
	statusType := NewGraphqlType("StatusType", &scope.Stats{})

	rootQuery := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootQuery",
			Fields: graphql.Fields{
				"params": &graphql.Field{
					Type: paramType,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						params, err := b.Parameters(p.Context)
						return &params, err
					},
				},
				"status": &graphql.Field{
					Type: statusType,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						st, err := b.Stats(p.Context)
						return &st, err
					},
				},
			},
		},
	)
	rootMut := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootMut",
			Fields: graphql.Fields{
				"params": &graphql.Field{
					Type: paramType,
					Args: graphql.FieldConfigArgument{
						"params": &graphql.ArgumentConfig{Type: inputParamType},
					},
					Resolve: a.setParams,
				},
				"toggleMode": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						m, err := b.ToggleMode(p.Context)
						if err != nil {
							return nil, err
						}
						return m.String(), nil
					},
				},
			},
		},
	)
	schema, err := graphql.NewSchema(
		graphql.SchemaConfig{
			Query:    rootQuery,
			Mutation: rootMut,
		},
	)
	if err != nil {
		return nil, err
	}
	a.schema = schema
	return a, nil
}

func (a *API) setParams(p graphql.ResolveParams) (interface{}, error) {
	args, ok := p.Args["params"].(map[string]interface{})
	if !ok {
		return nil, errors.New("missing arg: params")
	}
	params, err := a.backend.Parameters(p.Context)
	if err != nil {
		return nil, err
	}
	if err := applyArgs(&params, args); err != nil {
		return nil, err
	}
	if err := a.backend.SetParameters(p.Context, params); err != nil {
		return nil, err
	}
	glog.V(1).Infof("parameters updated: %+v", params)
	return &params, nil
}

// Query runs a GraphQL request.
func (a *API) Query(ctx context.Context, query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         a.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

type apolloQuery struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// Register mounts the GraphQL endpoints on mux. v1 takes the query from the
// URL, v2 takes an apollo style JSON body.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		glog.V(2).Info(query)
		a.respond(w, a.Query(r.Context(), query, nil))
	})

	mux.HandleFunc("/api/v2/graphql", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var q apolloQuery
		if err := json.Unmarshal(body, &q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		glog.V(2).Info(q.Query)
		a.respond(w, a.Query(r.Context(), q.Query, q.Variables))
	})
}

func (a *API) respond(w http.ResponseWriter, res *graphql.Result) {
	for _, err := range res.Errors {
		glog.Warning(err)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
