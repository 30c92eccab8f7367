package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/floworkhq/flowork/pkg/eventbus"
	"github.com/floworkhq/flowork/pkg/events"
	"github.com/floworkhq/flowork/pkg/llm"
	"github.com/floworkhq/flowork/pkg/models"
	"github.com/floworkhq/flowork/pkg/otelhelper"
)

// ErrLLMNotInitialized is returned when an execution is requested before the
// language model is configured.
var ErrLLMNotInitialized = errors.New("LLM not initialized. Please configure GROQ_API_KEY")

const (
	logInputPreview  = 200
	logDetailPreview = 300
	logOutputPreview = 500
)

// Executor runs compiled workflows node by node, following routing decisions
// until the plan reaches END or the step limit.
type Executor struct {
	compiler   *Compiler
	router     *Router
	agent      *Agent
	llmManager *llm.Manager
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewExecutor creates an executor. The publisher and tracer may be nil; both
// are optional observers of the execution.
func NewExecutor(llmManager *llm.Manager, publisher eventbus.EventPublisher, tracer trace.Tracer, logger *slog.Logger) *Executor {
	router := NewRouter(logger)

	return &Executor{
		compiler:   NewCompiler(logger),
		router:     router,
		agent:      NewAgent(router, logger),
		llmManager: llmManager,
		publisher:  publisher,
		tracer:     tracer,
		logger:     logger,
	}
}

// Execute compiles and runs a workflow against the given input. Compilation
// and configuration failures are returned as errors; failures during node
// execution are captured in the result instead.
func (e *Executor) Execute(ctx context.Context, workflow *models.Workflow, input string) (*models.ExecutionResult, error) {
	plan, err := e.compiler.Compile(workflow)
	if err != nil {
		return nil, err
	}

	if !e.llmManager.Initialized() {
		return nil, ErrLLMNotInitialized
	}

	executionID := uuid.New().String()
	provider := e.llmManager.Provider()

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
			attribute.String(otelhelper.ModelNameKey, provider.ModelName()),
		)
		defer span.End()
	}

	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", executionID)
	logger.InfoContext(ctx, "Starting workflow execution", "workflow_name", workflow.Name)

	startedAt := time.Now()
	state := models.NewExecutionState(input)
	executionLog := []string{
		"🚀 Starting workflow execution",
		fmt.Sprintf("📥 Input: %s...", preview(input, logInputPreview)),
	}

	e.publish(ctx, workflow.ID, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflow.ID),
		ExecutionID:  executionID,
		WorkflowName: workflow.Name,
		Input:        input,
	})

	steps := 0
	currentNodeID := plan.StartNodeID

	for currentNodeID != models.EndTarget {
		steps++
		if steps > plan.StepLimit {
			message := fmt.Sprintf("Workflow execution failed: step limit %d exceeded", plan.StepLimit)
			logger.ErrorContext(ctx, "Step limit exceeded", "step_limit", plan.StepLimit)

			executionLog = append(executionLog, "❌ "+message)
			state.LastResponseContent = "ERROR: " + message

			otelhelper.SetError(trace.SpanFromContext(ctx), errors.New(message))

			break
		}

		node := plan.Node(currentNodeID)

		nodeStart := time.Now()
		content := e.runNode(ctx, provider, plan, node, state)

		state.NodeOutputs[node.ID] = content
		state.LastResponseContent = content
		state.CurrentNodeID = node.ID

		routingMap := plan.RoutingMaps[node.ID]
		routingKey := e.router.Route(content, routingMap)
		nextNodeID := routingMap[routingKey]

		logger.InfoContext(ctx, "Node executed",
			"node_name", node.Name,
			"routing_key", routingKey,
			"next_node_id", nextNodeID)

		e.publish(ctx, workflow.ID, events.NodeExecuted{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutedEvent, workflow.ID),
			ExecutionID: executionID,
			NodeID:      node.ID,
			NodeName:    node.Name,
			RoutingKey:  routingKey,
			NextNodeID:  nextNodeID,
			DurationMs:  time.Since(nodeStart).Milliseconds(),
		})

		currentNodeID = nextNodeID
	}

	executionLog = e.appendOutcome(ctx, logger, state, executionLog)

	summary := buildSummary(state)
	durationMs := time.Since(startedAt).Milliseconds()

	if summary.HasError {
		e.publish(ctx, workflow.ID, events.WorkflowExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionFailedEvent, workflow.ID),
			ExecutionID:   executionID,
			Error:         state.LastResponseContent,
			NodesExecuted: summary.NodesExecuted,
			DurationMs:    durationMs,
		})
	} else {
		e.publish(ctx, workflow.ID, events.WorkflowExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, workflow.ID),
			ExecutionID:   executionID,
			NodesExecuted: summary.NodesExecuted,
			FinalOutput:   summary.FinalOutput,
			DurationMs:    durationMs,
		})
	}

	return &models.ExecutionResult{
		FinalState:   state,
		ExecutionLog: executionLog,
		Summary:      summary,
	}, nil
}

func (e *Executor) runNode(ctx context.Context, provider llm.Provider, plan *Plan, node *models.Node, state *models.ExecutionState) string {
	span := trace.SpanFromContext(ctx)

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeNameKey, node.Name),
		)
		defer span.End()
	}

	content := e.agent.Run(ctx, provider, node, state, plan.PossibleKeys[node.ID])

	if IsErrorOutput(content) {
		failure := errors.New(preview(e.router.CleanContent(content), logDetailPreview))
		otelhelper.SetError(span, failure, attribute.String(otelhelper.NodeIDKey, node.ID))
	}

	return content
}

// appendOutcome adds the completion or error lines to the execution log,
// scanning the final state for outputs flagged as errors.
func (e *Executor) appendOutcome(ctx context.Context, logger *slog.Logger, state *models.ExecutionState, executionLog []string) []string {
	errorDetails := make([]string, 0)

	if IsErrorOutput(state.LastResponseContent) {
		errorDetails = append(errorDetails, "Final state error: "+state.LastResponseContent)
	}

	for nodeID, output := range state.NodeOutputs {
		if IsErrorOutput(output) {
			errorDetails = append(errorDetails, fmt.Sprintf("Node %s error: %s", nodeID, preview(output, logInputPreview)))
		}
	}

	if len(errorDetails) > 0 {
		logger.ErrorContext(ctx, "Workflow execution completed with errors", "errors", len(errorDetails))

		executionLog = append(executionLog, "❌ Workflow execution completed with errors")
		for _, detail := range errorDetails {
			executionLog = append(executionLog, "  ⚠️ "+preview(detail, logDetailPreview))
		}

		return executionLog
	}

	logger.InfoContext(ctx, "Workflow execution completed successfully")

	executionLog = append(executionLog, "✅ Workflow execution completed")
	if state.LastResponseContent != "" {
		executionLog = append(executionLog, fmt.Sprintf("📤 Final output: %s...", preview(state.LastResponseContent, logOutputPreview)))
	}

	return executionLog
}

func buildSummary(state *models.ExecutionState) *models.ExecutionSummary {
	return &models.ExecutionSummary{
		NodesExecuted: len(state.NodeOutputs),
		NodeOutputs:   state.NodeOutputs,
		FinalOutput:   state.LastResponseContent,
		CurrentNode:   state.CurrentNodeID,
		HasError:      IsErrorOutput(state.LastResponseContent),
	}
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish execution event", "event_type", event.GetType(), "error", err)
	}
}

// preview truncates s for log lines, backing off to a rune boundary so a
// multibyte character is never split.
func preview(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= limit {
		return s
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}

	return s[:limit]
}
