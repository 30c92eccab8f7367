package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/floworkhq/flowork/pkg/models"
)

const metadataFileName = ".metadata.json"

// WorkflowRepository handles workflow-related file operations. Workflows live
// under <root>/workflows, one JSON document per workflow, indexed by a
// metadata file so listings do not have to load every document.
type WorkflowRepository struct {
	root string

	// mu serializes index read-modify-write cycles. The index file itself is
	// replaced via rename so concurrent readers never see a partial write.
	mu sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) workflowsDir() string {
	return path.Join(wr.root, "workflows")
}

// GetAll loads every workflow document, sorted by creation time (newest first).
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	dir := wr.workflowsDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return make([]*models.Workflow, 0), nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		if file == metadataFileName {
			continue
		}

		workflowID := file[:len(file)-5] // Remove .json extension

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
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

// Metadata returns workflow summaries from the metadata index, sorted by
// creation time (newest first). A missing index yields an empty list.
func (wr *WorkflowRepository) Metadata(_ context.Context) ([]*models.WorkflowMetadata, error) {
	index, err := wr.readIndex()
	if err != nil {
		return nil, err
	}

	metadata := make([]*models.WorkflowMetadata, 0, len(index))
	for id, entry := range index {
		entry.ID = id
		metadata = append(metadata, entry)
	}

	sort.Slice(metadata, func(i, j int) bool {
		return metadata[i].CreatedAt.After(metadata[j].CreatedAt)
	})

	return metadata, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	filePath := filepath.Clean(path.Join(wr.workflowsDir(), workflowID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// Save writes the workflow document and updates the metadata index.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	err := os.MkdirAll(wr.workflowsDir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	filePath := path.Join(wr.workflowsDir(), workflow.ID+".json")

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	return wr.updateIndex(func(index map[string]*models.WorkflowMetadata) {
		index[workflow.ID] = workflow.Summary()
	})
}

// Delete removes a workflow document and its index entry. Deleting a missing
// workflow is a no-op.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(wr.workflowsDir(), id+".json")

	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return wr.updateIndex(func(index map[string]*models.WorkflowMetadata) {
		delete(index, id)
	})
}

func (wr *WorkflowRepository) indexPath() string {
	return path.Join(wr.workflowsDir(), metadataFileName)
}

func (wr *WorkflowRepository) readIndex() (map[string]*models.WorkflowMetadata, error) {
	body, err := os.ReadFile(wr.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*models.WorkflowMetadata), nil
		}

		return nil, fmt.Errorf("failed to read workflow metadata index: %w", err)
	}

	index := make(map[string]*models.WorkflowMetadata)
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow metadata index: %w", err)
	}

	return index, nil
}

func (wr *WorkflowRepository) updateIndex(mutate func(map[string]*models.WorkflowMetadata)) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	index, err := wr.readIndex()
	if err != nil {
		return err
	}

	mutate(index)

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow metadata index: %w", err)
	}

	tmpPath := wr.indexPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow metadata index: %w", err)
	}

	if err := os.Rename(tmpPath, wr.indexPath()); err != nil {
		return fmt.Errorf("failed to replace workflow metadata index: %w", err)
	}

	return nil
}
