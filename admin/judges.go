package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openjudge/judgectl/client"
)

// JudgeNode is one judge machine reporting to the platform.
type JudgeNode struct {
	ID       string    `json:"id"`
	Hostname string    `json:"hostname"`
	Status   string    `json:"status"`
	Load     float64   `json:"load,omitempty"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// JudgeJob is one judging job and its outcome.
type JudgeJob struct {
	ID          int64      `json:"id"`
	ProblemID   int64      `json:"problemId"`
	Submitter   string     `json:"submitter"`
	NodeID      string     `json:"nodeId,omitempty"`
	Status      string     `json:"status"`
	Verdict     string     `json:"verdict,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// JobQuery filters the job list.
type JobQuery struct {
	ListQuery
	Status string
	NodeID string
}

// JobPage is one page of the job list.
type JobPage struct {
	Jobs []JudgeJob `json:"jobs"`
	Meta ListMeta   `json:"meta"`
}

// ListNodes returns all judge nodes.
func (s *Service) ListNodes(ctx context.Context) ([]JudgeNode, error) {
	page, err := doGet[struct {
		Nodes []JudgeNode `json:"nodes"`
	}](ctx, s.c, "/admin/nodes")
	if err != nil {
		return nil, err
	}
	return page.Nodes, nil
}

// ListJobs returns one page of judging jobs matching q.
func (s *Service) ListJobs(ctx context.Context, q JobQuery) (*JobPage, error) {
	v := q.values()
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.NodeID != "" {
		v.Set("nodeId", q.NodeID)
	}
	return doList[JobPage](ctx, s.c, "/admin/jobs", v)
}

// GetJob fetches one judging job by id.
func (s *Service) GetJob(ctx context.Context, id int64) (*JudgeJob, error) {
	return doGet[JudgeJob](ctx, s.c, fmt.Sprintf("/admin/jobs/%d", id))
}

// RetryJob requeues a finished or failed job. Destructive: requires a
// sensitive-operation token from the step-up gate.
func (s *Service) RetryJob(ctx context.Context, id int64, sensitiveToken string) error {
	return s.c.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/admin/jobs/%d/retry", id),
		Header: sensitiveHeader(sensitiveToken),
	}, nil)
}
