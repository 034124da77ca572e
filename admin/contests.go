package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Contest is one contest as managed through the admin screens.
type Contest struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind,omitempty"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
	Visible    bool      `json:"visible"`
	ProblemIDs []int64   `json:"problemIds,omitempty"`
}

// ContestDraft is the mutable subset sent on create and update.
type ContestDraft struct {
	Title      string    `json:"title"`
	Kind       string    `json:"kind,omitempty"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
	ProblemIDs []int64   `json:"problemIds,omitempty"`
}

// ContestPage is one page of the contest list.
type ContestPage struct {
	Contests []Contest `json:"contests"`
	Meta     ListMeta  `json:"meta"`
}

// ListContests returns one page of contests matching q.
func (s *Service) ListContests(ctx context.Context, q ListQuery) (*ContestPage, error) {
	return doList[ContestPage](ctx, s.c, "/admin/contests", q.values())
}

// GetContest fetches one contest by id.
func (s *Service) GetContest(ctx context.Context, id int64) (*Contest, error) {
	return doGet[Contest](ctx, s.c, fmt.Sprintf("/admin/contests/%d", id))
}

// CreateContest creates a contest and returns it.
func (s *Service) CreateContest(ctx context.Context, draft ContestDraft) (*Contest, error) {
	return doBody[Contest](ctx, s.c, http.MethodPost, "/admin/contests", draft)
}

// UpdateContest replaces the mutable fields of a contest.
func (s *Service) UpdateContest(ctx context.Context, id int64, draft ContestDraft) (*Contest, error) {
	return doBody[Contest](ctx, s.c, http.MethodPut, fmt.Sprintf("/admin/contests/%d", id), draft)
}

// DeleteContest removes a contest.
func (s *Service) DeleteContest(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/contests/%d", id))
}
