// Package file provides file-based persistence for workflows.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/floworkhq/flowork/pkg/models"
)

// Persistence implements the persistence.Persistence interface using the file
// system. Each workflow is stored as a pretty-printed JSON document, with a
// metadata index kept alongside for cheap listing.
type Persistence struct {
	root string
	repo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root: cleanRoot,
		repo: NewWorkflowRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return fp.repo.GetAll(ctx)
}

func (fp *Persistence) WorkflowMetadata(ctx context.Context) ([]*models.WorkflowMetadata, error) {
	return fp.repo.Metadata(ctx)
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return fp.repo.GetByID(ctx, id)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return fp.repo.Save(ctx, workflow)
}

func (fp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return fp.repo.Delete(ctx, id)
}
