package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/floworkhq/flowork/pkg/persistence"
	"github.com/floworkhq/flowork/pkg/services"
)

// errorBody is an RFC 7807 problem with the legacy "error" field mirror that
// existing clients read.
type errorBody struct {
	*problems.Problem

	Error string `json:"error"`
}

func problemJSON(c fiber.Ctx, status int, problemType, detail string) error {
	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(errorBody{Problem: problem, Error: detail})
}

func badRequest(c fiber.Ctx, detail string) error {
	return problemJSON(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problemJSON(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	return problemJSON(c, fiber.StatusInternalServerError, "internal_error", err.Error())
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case persistence.IsWorkflowNotFound(err):
		return problemJSON(c, fiber.StatusNotFound, "workflow_not_found", "Workflow not found")

	default:
		return internalError(c, err)
	}
}
