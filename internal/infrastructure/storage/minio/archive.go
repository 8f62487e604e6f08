package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

const (
	runsPrefix = "runs"

	jobObject    = "job.json"
	outputObject = "output.csv"

	contentTypeJSON = "application/json"
	contentTypeCSV  = "text/csv"
)

// RunArchive stores engine runs under runs/<date>/<request id>/<run id>/.
type RunArchive struct {
	client *Client
	logger logging.Logger
}

// NewRunArchive binds an archive to client's bucket.
func NewRunArchive(client *Client, log logging.Logger) *RunArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RunArchive{client: client, logger: log.Named("archive")}
}

// Archive writes the job document and, when present, the engine output.
func (a *RunArchive) Archive(ctx context.Context, rec scoring.RunRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	prefix := rec.Prefix()
	meta := map[string]string{
		"request-id": rec.RequestID,
		"property":   rec.Property,
	}

	job, err := json.MarshalIndent(rec.Job, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode job document")
	}
	if err := a.put(ctx, path.Join(prefix, jobObject), job, contentTypeJSON, meta); err != nil {
		return err
	}
	if len(rec.Output) > 0 {
		if err := a.put(ctx, path.Join(prefix, outputObject), rec.Output, contentTypeCSV, meta); err != nil {
			return err
		}
	}

	a.logger.Debug("run archived",
		logging.String(logging.FieldRequestID, rec.RequestID),
		logging.String(logging.FieldArtifact, prefix))
	return nil
}

func (a *RunArchive) put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	_, err := a.client.api.PutObject(ctx, a.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to upload archive object").WithDetail(key)
	}
	return nil
}

//Personal.AI order the ending
