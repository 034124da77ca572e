package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// User is one platform account as seen by an administrator.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// UserQuery filters the user list.
type UserQuery struct {
	ListQuery
	Status string
}

// UserPage is one page of the user list.
type UserPage struct {
	Users []User   `json:"users"`
	Meta  ListMeta `json:"meta"`
}

// ListUsers returns one page of users matching q.
func (s *Service) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	v := q.values()
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return doList[UserPage](ctx, s.c, "/admin/users", v)
}

// GetUser fetches one user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return doGet[User](ctx, s.c, "/admin/users/"+id)
}

// UpdateUser replaces a user's mutable profile fields.
func (s *Service) UpdateUser(ctx context.Context, id string, fields map[string]any) (*User, error) {
	return doBody[User](ctx, s.c, http.MethodPut, "/admin/users/"+id, fields)
}

// BanUser suspends an account.
func (s *Service) BanUser(ctx context.Context, id string, reason string) error {
	_, err := doBody[User](ctx, s.c, http.MethodPost,
		fmt.Sprintf("/admin/users/%s/ban", id),
		map[string]string{"reason": reason})
	return err
}

// UnbanUser lifts a suspension.
func (s *Service) UnbanUser(ctx context.Context, id string) error {
	_, err := doBody[User](ctx, s.c, http.MethodPost,
		fmt.Sprintf("/admin/users/%s/unban", id), nil)
	return err
}

// AssignRoles replaces the set of roles held by a user.
func (s *Service) AssignRoles(ctx context.Context, id string, roles []string) error {
	_, err := doBody[User](ctx, s.c, http.MethodPut,
		fmt.Sprintf("/admin/users/%s/roles", id),
		map[string][]string{"roles": roles})
	return err
}
