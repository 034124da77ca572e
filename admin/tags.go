package admin

import (
	"context"
	"fmt"
	"net/http"
)

// Tag is one problem tag.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// TagPage is one page of the tag list.
type TagPage struct {
	Tags []Tag    `json:"tags"`
	Meta ListMeta `json:"meta"`
}

// ListTags returns one page of tags matching q.
func (s *Service) ListTags(ctx context.Context, q ListQuery) (*TagPage, error) {
	return doList[TagPage](ctx, s.c, "/admin/tags", q.values())
}

// CreateTag creates a tag and returns it.
func (s *Service) CreateTag(ctx context.Context, name string) (*Tag, error) {
	return doBody[Tag](ctx, s.c, http.MethodPost, "/admin/tags", map[string]string{"name": name})
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/tags/%d", id))
}
