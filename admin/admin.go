// Package admin provides typed access to the judge platform's admin API:
// problems, contests, users, roles, tags, datasets, comment moderation,
// sensitive words, judge nodes/jobs and issued tokens.
package admin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/openjudge/judgectl/client"
)

// SensitiveTokenHeader carries the step-up token on sensitive-gated calls.
const SensitiveTokenHeader = "X-Sensitive-Token"

// Service is a thin typed layer over the HTTP client; it holds no state.
type Service struct {
	c *client.Client
}

// NewService creates an admin service around the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

// ListMeta is embedded in every paginated list response.
type ListMeta struct {
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// ListQuery is the common paging and keyword filter for list endpoints.
// Zero values are omitted and the server applies its defaults.
type ListQuery struct {
	Page     int
	PageSize int
	Keyword  string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	return v
}

// sensitiveHeader builds the extra header for a step-up-gated call.
func sensitiveHeader(token string) http.Header {
	return http.Header{SensitiveTokenHeader: {token}}
}

// The per-resource files share these little call shapes; each method stays
// a one-liner naming its endpoint.

func doList[T any](ctx context.Context, c *client.Client, path string, query url.Values) (*T, error) {
	out, err := client.Do[T](ctx, c, client.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func doGet[T any](ctx context.Context, c *client.Client, path string) (*T, error) {
	return doList[T](ctx, c, path, nil)
}

func doBody[T any](ctx context.Context, c *client.Client, method, path string, body any) (*T, error) {
	out, err := client.Do[T](ctx, c, client.Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func doDelete(ctx context.Context, c *client.Client, path string) error {
	return c.Call(ctx, client.Request{Method: http.MethodDelete, Path: path}, nil)
}
