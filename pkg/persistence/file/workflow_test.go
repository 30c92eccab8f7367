package file

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/models"
)

func testWorkflow(id, name string) *models.Workflow {
	return &models.Workflow{
		ID:   id,
		Name: name,
		Nodes: []*models.Node{
			{
				ID:           "node-1",
				Name:         "Node 1",
				Prompt:       "Summarize: {input_text}",
				RoutingRules: models.NewRoutingRules(),
			},
		},
	}
}

func TestPersistence_SaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	wf := testWorkflow("wf-1", "Review Pipeline")
	require.NoError(t, p.SaveWorkflow(ctx, wf))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Review Pipeline", loaded.Name)
	assert.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "node-1", loaded.Nodes[0].ID)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestPersistence_GetByID_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	loaded, err := p.WorkflowByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestPersistence_FileURLPrefix(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := NewPersistence("file://" + root)

	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-1", "Prefixed")))

	_, err := os.Stat(path.Join(root, "workflows", "wf-1.json"))
	require.NoError(t, err)
}

func TestPersistence_Workflows_SortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	older := testWorkflow("wf-older", "Older")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, p.SaveWorkflow(ctx, older))

	newer := testWorkflow("wf-newer", "Newer")
	require.NoError(t, p.SaveWorkflow(ctx, newer))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "wf-newer", workflows[0].ID)
	assert.Equal(t, "wf-older", workflows[1].ID)
}

func TestPersistence_MetadataIndex(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	wf := testWorkflow("wf-1", "Indexed")
	wf.Description = "keeps an index entry"
	require.NoError(t, p.SaveWorkflow(ctx, wf))

	metadata, err := p.WorkflowMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metadata, 1)
	assert.Equal(t, "wf-1", metadata[0].ID)
	assert.Equal(t, "Indexed", metadata[0].Name)
	assert.Equal(t, "keeps an index entry", metadata[0].Description)
	assert.Equal(t, 1, metadata[0].NodeCount)
}

func TestPersistence_ConcurrentSaves_IndexComplete(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	const writers = 50

	var wg sync.WaitGroup

	errs := make([]error, writers)
	readErrs := make([]error, writers)

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id := fmt.Sprintf("wf-%d", i)
			errs[i] = p.SaveWorkflow(ctx, testWorkflow(id, "Workflow "+id))

			// Listings racing the writes must never see a torn index.
			_, readErrs[i] = p.WorkflowMetadata(ctx)
		}()
	}

	wg.Wait()

	for i := range writers {
		require.NoError(t, errs[i])
		require.NoError(t, readErrs[i])
	}

	metadata, err := p.WorkflowMetadata(ctx)
	require.NoError(t, err)
	assert.Len(t, metadata, writers)
}

func TestPersistence_Metadata_EmptyStore(t *testing.T) {
	p := NewPersistence(t.TempDir())

	metadata, err := p.WorkflowMetadata(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestPersistence_Delete(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow("wf-1", "Doomed")))
	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	metadata, err := p.WorkflowMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestPersistence_Delete_Missing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.DeleteWorkflow(context.Background(), "missing"))
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/flowork-test-root")
	require.Error(t, missing.HealthCheck(context.Background()))
}
