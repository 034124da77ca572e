package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Comment is one user comment in the moderation queue.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	ProblemID int64     `json:"problemId,omitempty"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// CommentQuery filters the moderation queue.
type CommentQuery struct {
	ListQuery
	Status string
}

// CommentPage is one page of the moderation queue.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Meta     ListMeta  `json:"meta"`
}

// ListComments returns one page of the moderation queue matching q.
func (s *Service) ListComments(ctx context.Context, q CommentQuery) (*CommentPage, error) {
	v := q.values()
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return doList[CommentPage](ctx, s.c, "/admin/comments", v)
}

// ApproveComment marks a comment as acceptable.
func (s *Service) ApproveComment(ctx context.Context, id int64) error {
	_, err := doBody[Comment](ctx, s.c, http.MethodPost,
		fmt.Sprintf("/admin/comments/%d/approve", id), nil)
	return err
}

// RejectComment hides a comment, recording the reason.
func (s *Service) RejectComment(ctx context.Context, id int64, reason string) error {
	_, err := doBody[Comment](ctx, s.c, http.MethodPost,
		fmt.Sprintf("/admin/comments/%d/reject", id),
		map[string]string{"reason": reason})
	return err
}

// DeleteComment removes a comment outright.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/comments/%d", id))
}
