package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Dataset is one testcase dataset attached to a problem.
type Dataset struct {
	ID        int64     `json:"id"`
	ProblemID int64     `json:"problemId"`
	Name      string    `json:"name"`
	Cases     int       `json:"cases"`
	SizeBytes int64     `json:"sizeBytes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Testcase is one input/answer pair in a dataset manifest.
type Testcase struct {
	Input  string `json:"input"`
	Answer string `json:"answer"`
	Score  int    `json:"score,omitempty"`
}

// DatasetManifest is the JSON body for dataset upload.
type DatasetManifest struct {
	Name  string     `json:"name"`
	Cases []Testcase `json:"cases"`
}

// ListDatasets returns the datasets of one problem.
func (s *Service) ListDatasets(ctx context.Context, problemID int64) ([]Dataset, error) {
	page, err := doGet[struct {
		Datasets []Dataset `json:"datasets"`
	}](ctx, s.c, fmt.Sprintf("/admin/problems/%d/datasets", problemID))
	if err != nil {
		return nil, err
	}
	return page.Datasets, nil
}

// UploadDataset attaches a dataset manifest to a problem.
func (s *Service) UploadDataset(ctx context.Context, problemID int64, manifest DatasetManifest) (*Dataset, error) {
	return doBody[Dataset](ctx, s.c, http.MethodPost,
		fmt.Sprintf("/admin/problems/%d/datasets", problemID), manifest)
}

// DeleteDataset removes a dataset from its problem.
func (s *Service) DeleteDataset(ctx context.Context, problemID, datasetID int64) error {
	return doDelete(ctx, s.c, fmt.Sprintf("/admin/problems/%d/datasets/%d", problemID, datasetID))
}
