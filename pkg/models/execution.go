package models

// ExecutionState is the mutable state threaded through one workflow run.
type ExecutionState struct {
	Input               string            `json:"input"`
	NodeOutputs         map[string]string `json:"node_outputs"`
	LastResponseContent string            `json:"last_response_content"`
	CurrentNodeID       string            `json:"current_node_id"`
}

// NewExecutionState returns the initial state for a run.
func NewExecutionState(input string) *ExecutionState {
	return &ExecutionState{
		Input:       input,
		NodeOutputs: map[string]string{},
	}
}

// ExecutionSummary condenses the outcome of a run.
type ExecutionSummary struct {
	NodesExecuted int               `json:"nodes_executed"`
	NodeOutputs   map[string]string `json:"node_outputs"`
	FinalOutput   string            `json:"final_output"`
	CurrentNode   string            `json:"current_node"`
	HasError      bool              `json:"has_error"`
}

// ExecutionResult is the outcome of one run as returned over the wire.
// Either Error is set, or the success fields are populated. A result is held
// whole and replaced whole; it is never merged with a previous one.
type ExecutionResult struct {
	Error        string            `json:"error,omitempty"`
	FinalState   *ExecutionState   `json:"final_state,omitempty"`
	ExecutionLog []string          `json:"execution_log,omitempty"`
	Summary      *ExecutionSummary `json:"summary,omitempty"`
}

// IsError reports whether the result carries an error instead of run output.
func (r *ExecutionResult) IsError() bool {
	return r.Error != ""
}

// LLMStatus is a read-only snapshot of the LLM provider state.
type LLMStatus struct {
	APIKeyConfigured bool    `json:"api_key_configured"`
	LLMInitialized   bool    `json:"llm_initialized"`
	ModelName        string  `json:"model_name"`
	Temperature      float64 `json:"temperature"`
}
