package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"

	"github.com/elastic/go-elasticsearch/v8"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"runId":         {"type": "keyword"},
			"requestId":     {"type": "keyword"},
			"outcome":       {"type": "keyword"},
			"reason":        {"type": "keyword"},
			"poolSize":      {"type": "integer"},
			"eligibleCount": {"type": "integer"},
			"startedAt":     {"type": "date"},
			"durationMs":    {"type": "long"},
			"assignedTechnician": {
				"properties": {
					"id":       {"type": "keyword"},
					"score":    {"type": "float"},
					"distance": {"type": "float"}
				}
			},
			"alternatives": {"type": "object", "enabled": false},
			"notifications": {"type": "object", "enabled": false}
		}
	}
}`

// Decision is the document written per match run.
type Decision struct {
	*dispatch.MatchResult
	DurationMs int64 `json:"durationMs"`
}

// ElasticsearchRecorder indexes one document per run, keyed by run id so a
// retried write overwrites instead of duplicating.
type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchRecorder {
	return &ElasticsearchRecorder{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit", "index": index}),
	}
}

// EnsureIndex creates the decision index if it does not exist yet.
func (r *ElasticsearchRecorder) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = r.client.Indices.Create(
		r.index,
		r.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		r.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index %s: %s", r.index, res.Status())
	}

	r.logger.Info("created audit index", nil)
	return nil
}

func (r *ElasticsearchRecorder) RecordDecision(ctx context.Context, result *dispatch.MatchResult) error {
	doc := Decision{MatchResult: result, DurationMs: result.Duration.Milliseconds()}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithDocumentID(result.RunID),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index decision %s: %w", result.RunID, apperrors.NewAuditIndexFailedError(r.index, err).WithCause(err))
	}
	defer res.Body.Close()

	if res.IsError() {
		statusErr := fmt.Errorf("status %s", res.Status())
		return fmt.Errorf("index decision %s: %w", result.RunID, apperrors.NewAuditIndexFailedError(r.index, statusErr))
	}

	r.logger.Debug("decision recorded", map[string]interface{}{
		"runId":     result.RunID,
		"requestId": result.RequestID,
		"outcome":   string(result.Outcome),
	})
	return nil
}

// NopRecorder discards decisions. Used when audit is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordDecision(context.Context, *dispatch.MatchResult) error { return nil }
