package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/floworkhq/flowork/pkg/llm"
	"github.com/floworkhq/flowork/pkg/models"
	"github.com/floworkhq/flowork/pkg/persistence"
	"github.com/floworkhq/flowork/pkg/services"
)

type APIHandlers struct {
	workflowService  *services.Workflow
	executionService *services.Execution
	llmManager       *llm.Manager
	validator        *validator.Validate
	persistence      persistence.Persistence
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionService *services.Execution,
	llmManager *llm.Manager,
	validator *validator.Validate,
	persistence persistence.Persistence,
) *APIHandlers {
	return &APIHandlers{
		workflowService:  workflowService,
		executionService: executionService,
		llmManager:       llmManager,
		validator:        validator,
		persistence:      persistence,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	metadata, err := h.workflowService.ListMetadata(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": metadata,
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow": workflow,
	})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	// Schema-check the raw document before binding so type mismatches come
	// back as one aggregated message.
	if err := models.ValidateWorkflowDocument(c.Body()); err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       nodesToModel(req.Nodes),
		Metadata:    req.Metadata,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"workflow": created,
	})
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	update := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       nodesToModel(req.Nodes),
		Metadata:    req.Metadata,
	}

	updated, err := h.workflowService.Update(c.Context(), id, update)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow": updated,
	})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Workflow deleted successfully",
	})
}

// ExecuteWorkflow runs a stored workflow. Configuration and compilation
// problems are rejected with 400; node-level failures still return 200 with
// the error recorded in the result summary.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.executionService.Execute(c.Context(), id, req.Input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	valid, message, err := h.workflowService.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid": valid,
		"error": message,
	})
}

func (h *APIHandlers) LLMStatus(c fiber.Ctx) error {
	return c.JSON(h.llmManager.Status())
}

func (h *APIHandlers) LLMInitialize(c fiber.Ctx) error {
	if err := h.llmManager.Initialize(c.Context()); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.llmManager.Status())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Flowork API is healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	if repositoryErr != nil {
		status = "unhealthy"
		message = "Flowork API is unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = repositoryErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
