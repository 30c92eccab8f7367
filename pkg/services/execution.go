package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/floworkhq/flowork/pkg/models"
	"github.com/floworkhq/flowork/pkg/workflow"
)

// Execution runs stored workflows.
type Execution struct {
	workflows *Workflow
	executor  *workflow.Executor
	logger    *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(workflows *Workflow, executor *workflow.Executor, logger *slog.Logger) *Execution {
	return &Execution{
		workflows: workflows,
		executor:  executor,
		logger:    logger,
	}
}

// Execute runs a stored workflow against the given input. Missing workflows
// surface as ErrWorkflowNotFound; compilation and configuration problems come
// back as validation errors; node-level failures are embedded in the result.
func (s *Execution) Execute(ctx context.Context, workflowID, input string) (*models.ExecutionResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrInputRequired
	}

	wf, err := s.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	result, err := s.executor.Execute(ctx, wf, input)
	if err != nil {
		return nil, NewValidationError("Execute", "execution_rejected", err.Error(), ErrInvalidRequest)
	}

	return result, nil
}
