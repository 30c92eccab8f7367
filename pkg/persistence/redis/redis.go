// Package redis provides Redis persistence for workflows.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/floworkhq/flowork/pkg/models"
)

const (
	workflowKeyPrefix = "flowork:workflows:"
	metadataIndexKey  = "flowork:workflows:index"

	connectTimeout = 5 * time.Second
)

// Persistence implements the persistence layer on Redis. Workflow documents
// are stored as JSON string values, with a hash acting as the metadata index
// for listings.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects to Redis using a redis:// URL and verifies the
// connection with a ping.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return &Persistence{client: client, logger: logger}, nil
}

// Close closes the Redis client.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

// Workflows loads every workflow referenced by the metadata index, newest first.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	index, err := p.client.HGetAll(ctx, metadataIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow index: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(index))

	for id := range index {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowMetadata returns workflow summaries from the index, newest first.
func (p *Persistence) WorkflowMetadata(ctx context.Context) ([]*models.WorkflowMetadata, error) {
	index, err := p.client.HGetAll(ctx, metadataIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow index: %w", err)
	}

	metadata := make([]*models.WorkflowMetadata, 0, len(index))

	for id, raw := range index {
		entry := &models.WorkflowMetadata{}
		if err := json.Unmarshal([]byte(raw), entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal index entry for workflow %s: %w", id, err)
		}

		entry.ID = id
		metadata = append(metadata, entry)
	}

	sort.Slice(metadata, func(i, j int) bool {
		return metadata[i].CreatedAt.After(metadata[j].CreatedAt)
	})

	return metadata, nil
}

// WorkflowByID returns a workflow by its ID, or nil when it does not exist.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	raw, err := p.client.Get(ctx, workflowKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal([]byte(raw), &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// SaveWorkflow writes the workflow document and its index entry atomically.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	summary, err := json.Marshal(workflow.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal workflow summary %s: %w", workflow.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, workflowKeyPrefix+workflow.ID, data, 0)
	pipe.HSet(ctx, metadataIndexKey, workflow.ID, summary)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes the workflow document and its index entry. Deleting
// a missing workflow is a no-op.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, workflowKeyPrefix+id)
	pipe.HDel(ctx, metadataIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
