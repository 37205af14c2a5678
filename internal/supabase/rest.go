package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Query is a PostgREST request against one table. Filters accumulate on the
// value, so build a new Query per call with From.
type Query struct {
	client *Client
	table  string
	params url.Values
}

// From starts a query against table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Eq adds a column=value filter.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

// Select reads the matching rows into out, which must be a pointer to a slice.
func (q *Query) Select(ctx context.Context, columns string, out interface{}) error {
	params := cloneValues(q.params)
	params.Set("select", columns)
	return q.client.do(ctx, request{
		method: http.MethodGet,
		path:   q.path(),
		query:  params,
		token:  AccessTokenFromContext(ctx),
	}, out)
}

// Insert writes row and decodes the created representation into out.
func (q *Query) Insert(ctx context.Context, row interface{}, out interface{}) error {
	params := cloneValues(q.params)
	params.Set("select", "*")
	return q.client.do(ctx, request{
		method:  http.MethodPost,
		path:    q.path(),
		query:   params,
		body:    []interface{}{row},
		token:   AccessTokenFromContext(ctx),
		headers: map[string]string{"Prefer": "return=representation"},
	}, out)
}

// Update patches the matching rows and decodes the updated rows into out.
func (q *Query) Update(ctx context.Context, patch interface{}, out interface{}) error {
	params := cloneValues(q.params)
	params.Set("select", "*")
	return q.client.do(ctx, request{
		method:  http.MethodPatch,
		path:    q.path(),
		query:   params,
		body:    patch,
		token:   AccessTokenFromContext(ctx),
		headers: map[string]string{"Prefer": "return=representation"},
	}, out)
}

// Delete removes the matching rows.
func (q *Query) Delete(ctx context.Context) error {
	return q.client.do(ctx, request{
		method:  http.MethodDelete,
		path:    q.path(),
		query:   cloneValues(q.params),
		token:   AccessTokenFromContext(ctx),
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

func cloneValues(v url.Values) url.Values {
	c := make(url.Values, len(v))
	for k, vals := range v {
		c[k] = append([]string(nil), vals...)
	}
	return c
}
