// Package archive persists finished run reports to S3-compatible object
// storage. Archiving is best-effort: a storage failure is logged by the
// caller and never fails the run.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"propertyops_backend/internal/workorders/domain"
)

// Archiver writes run reports somewhere durable.
type Archiver interface {
	ArchiveReport(ctx context.Context, report *domain.RunReport, summary string) error
}

// archivedReport is the stored JSON shape: the report plus the rendered
// summary so an operator can read the archive without the application.
type archivedReport struct {
	ID           string               `json:"id"`
	Mode         domain.RunMode       `json:"mode"`
	StartedAt    time.Time            `json:"startedAt"`
	FinishedAt   time.Time            `json:"finishedAt"`
	Processed    int                  `json:"processed"`
	AutoAssigned int                  `json:"autoAssigned"`
	ManualReview int                  `json:"manualReview"`
	Errors       int                  `json:"errors"`
	Merged       int                  `json:"merged"`
	ErrorNote    string               `json:"errorNote,omitempty"`
	Outcomes     []domain.ItemOutcome `json:"outcomes"`
	Summary      string               `json:"summary"`
}

// MinIOArchiver stores reports as JSON objects keyed by run date and id.
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

func NewMinIOArchiver(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOArchiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOArchiver{client: client, bucket: bucket}, nil
}

// EnsureBucketExists creates the archive bucket if it doesn't exist.
func (a *MinIOArchiver) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

func (a *MinIOArchiver) ArchiveReport(ctx context.Context, report *domain.RunReport, summary string) error {
	payload, err := json.MarshalIndent(archivedReport{
		ID:           report.ID.String(),
		Mode:         report.Mode,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		Processed:    report.Processed(),
		AutoAssigned: report.AutoAssigned(),
		ManualReview: report.ManualReviewNeeded(),
		Errors:       report.Errors(),
		Merged:       report.Merged(),
		ErrorNote:    report.ErrorNote,
		Outcomes:     report.Outcomes,
		Summary:      summary,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	key := fmt.Sprintf("runs/%s/%s.json", report.StartedAt.Format("2006/01/02"), report.ID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("store report %s: %w", key, err)
	}
	return nil
}

var _ Archiver = (*MinIOArchiver)(nil)
