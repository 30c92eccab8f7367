// Package persistence provides the storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/floworkhq/flowork/pkg/models"
)

// Persistence stores workflow documents. Implementations return nil (not an
// error) when a workflow does not exist; callers translate that into
// ErrWorkflowNotFound at the service boundary.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowMetadata(ctx context.Context) ([]*models.WorkflowMetadata, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
