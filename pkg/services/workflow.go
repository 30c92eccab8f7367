package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/floworkhq/flowork/pkg/eventbus"
	"github.com/floworkhq/flowork/pkg/events"
	"github.com/floworkhq/flowork/pkg/models"
	"github.com/floworkhq/flowork/pkg/persistence"
)

// Workflow handles workflow CRUD business operations. Writes are published to
// the event bus after they land in storage.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Workflow {
	return &Workflow{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger,
	}
}

// ListMetadata returns workflow summaries for listings.
func (s *Workflow) ListMetadata(ctx context.Context) ([]*models.WorkflowMetadata, error) {
	metadata, err := s.persistence.WorkflowMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return metadata, nil
}

// FetchByID returns a workflow, or ErrWorkflowNotFound when it does not exist.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow: %w", err)
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create stores a new workflow, assigning identifiers to the workflow and any
// node that arrives without one.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	workflow.ID = uuid.New().String()
	normalizeNodes(workflow)

	if err := s.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Workflow created", "workflow_id", workflow.ID, "workflow_name", workflow.Name)

	s.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent:    events.NewBaseEvent(events.WorkflowCreatedEvent, workflow.ID),
		WorkflowName: workflow.Name,
		NodeCount:    len(workflow.Nodes),
	})

	return workflow, nil
}

// Update replaces an existing workflow's content. The node list is replaced
// wholesale; name, description, and metadata keep their previous values when
// the update leaves them unset. CreatedAt is preserved.
func (s *Workflow) Update(ctx context.Context, id string, update *models.Workflow) (*models.Workflow, error) {
	if update == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(update.Name) != "" {
		existing.Name = update.Name
	}

	if update.Description != "" {
		existing.Description = update.Description
	}

	if update.Metadata != nil {
		existing.Metadata = update.Metadata
	}

	existing.Nodes = update.Nodes
	normalizeNodes(existing)

	if err := s.persistence.SaveWorkflow(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Workflow updated", "workflow_id", existing.ID, "workflow_name", existing.Name)

	s.publish(ctx, existing.ID, events.WorkflowUpdated{
		BaseEvent:    events.NewBaseEvent(events.WorkflowUpdatedEvent, existing.ID),
		WorkflowName: existing.Name,
		NodeCount:    len(existing.Nodes),
	})

	return existing, nil
}

// Delete removes a workflow, or returns ErrWorkflowNotFound when it does not exist.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	if _, err := s.FetchByID(ctx, id); err != nil {
		return err
	}

	if err := s.persistence.DeleteWorkflow(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id)

	s.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id),
	})

	return nil
}

// Validate checks a stored workflow's structure and reports the first problem.
func (s *Workflow) Validate(ctx context.Context, id string) (bool, string, error) {
	workflow, err := s.FetchByID(ctx, id)
	if err != nil {
		return false, "", err
	}

	if err := workflow.Validate(); err != nil {
		return false, err.Error(), nil
	}

	return true, "", nil
}

// normalizeNodes assigns IDs to nodes without one and fills in default
// routing rules.
func normalizeNodes(workflow *models.Workflow) {
	for _, node := range workflow.Nodes {
		if node.ID == "" {
			node.ID = uuid.New().String()
		}

		if node.RoutingRules.DefaultTarget == "" {
			node.RoutingRules.DefaultTarget = models.EndTarget
		}

		if node.RoutingRules.ConditionalTargets == nil {
			node.RoutingRules.ConditionalTargets = []models.RoutingRule{}
		}
	}
}

func (s *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish workflow event", "event_type", event.GetType(), "error", err)
	}
}
