package admin

import (
	"context"
	"fmt"
	"net/http"
)

// Role is one named permission set.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// RolePage is one page of the role list.
type RolePage struct {
	Roles []Role   `json:"roles"`
	Meta  ListMeta `json:"meta"`
}

// ListRoles returns one page of roles matching q.
func (s *Service) ListRoles(ctx context.Context, q ListQuery) (*RolePage, error) {
	return doList[RolePage](ctx, s.c, "/admin/roles", q.values())
}

// CreateRole creates a role and returns it.
func (s *Service) CreateRole(ctx context.Context, role Role) (*Role, error) {
	return doBody[Role](ctx, s.c, http.MethodPost, "/admin/roles", role)
}

// UpdateRole replaces a role's fields.
func (s *Service) UpdateRole(ctx context.Context, id int64, role Role) (*Role, error) {
	return doBody[Role](ctx, s.c, http.MethodPut, fmt.Sprintf("/admin/roles/%d", id), role)
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/roles/%d", id))
}
