// internal/archive/archive.go

// Package archive indexes completed orchestration results into
// Elasticsearch for later search and audit. Indexing is best-effort; the
// pipeline never waits on or fails because of the archive.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/models"
)

// PlanArchive writes one document per run, keyed by run id. It satisfies
// pipeline.Archiver.
type PlanArchive struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewPlanArchive(client *elasticsearch.Client, index string, log logger.Logger) *PlanArchive {
	return &PlanArchive{
		client: client,
		index:  index,
		logger: log,
	}
}

// Index stores the result document under its run id.
func (a *PlanArchive) Index(ctx context.Context, result *models.ContentOrchestrationResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	res, err := a.client.Index(
		a.index,
		bytes.NewReader(body),
		a.client.Index.WithDocumentID(result.RunID),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		return pipeerrors.NewArchiveIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return pipeerrors.NewArchiveIndexFailedError(fmt.Errorf("index %s: %s", a.index, res.Status()))
	}

	a.logger.Debug("archived orchestration result", map[string]interface{}{
		"runId": result.RunID,
		"index": a.index,
	})
	return nil
}
