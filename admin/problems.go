package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Problem is one problem as managed through the admin screens.
type Problem struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	Visible    bool      `json:"visible"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// ProblemDraft is the mutable subset sent on create and update.
type ProblemDraft struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Statement  string   `json:"statement,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// ProblemQuery filters the problem list.
type ProblemQuery struct {
	ListQuery
	Difficulty string
}

// ProblemPage is one page of the problem list.
type ProblemPage struct {
	Problems []Problem `json:"problems"`
	Meta     ListMeta  `json:"meta"`
}

// ListProblems returns one page of problems matching q.
func (s *Service) ListProblems(ctx context.Context, q ProblemQuery) (*ProblemPage, error) {
	v := q.values()
	if q.Difficulty != "" {
		v.Set("difficulty", q.Difficulty)
	}
	return doList[ProblemPage](ctx, s.c, "/admin/problems", v)
}

// GetProblem fetches one problem by id.
func (s *Service) GetProblem(ctx context.Context, id int64) (*Problem, error) {
	return doGet[Problem](ctx, s.c, fmt.Sprintf("/admin/problems/%d", id))
}

// CreateProblem creates a problem and returns it.
func (s *Service) CreateProblem(ctx context.Context, draft ProblemDraft) (*Problem, error) {
	return doBody[Problem](ctx, s.c, http.MethodPost, "/admin/problems", draft)
}

// UpdateProblem replaces the mutable fields of a problem.
func (s *Service) UpdateProblem(ctx context.Context, id int64, draft ProblemDraft) (*Problem, error) {
	return doBody[Problem](ctx, s.c, http.MethodPut, fmt.Sprintf("/admin/problems/%d", id), draft)
}

// DeleteProblem removes a problem.
func (s *Service) DeleteProblem(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/problems/%d", id))
}

// SetProblemVisibility toggles whether a problem is visible to contestants.
func (s *Service) SetProblemVisibility(ctx context.Context, id int64, visible bool) error {
	_, err := doBody[Problem](ctx, s.c, http.MethodPatch,
		fmt.Sprintf("/admin/problems/%d/visibility", id),
		map[string]bool{"visible": visible})
	return err
}
