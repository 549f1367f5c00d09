// Package tools provides the capability set the conversation loop calls into.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Registry storage and lookup hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a named capability the model may invoke. It accepts a parameter
// map and returns a JSON-serializable result.
type Tool interface {
	// Definition returns the tool's name, description, and parameter schema.
	Definition() Definition

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// Definition describes what a tool does and how to call it.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Result represents the outcome of a tool execution.
// Success is determined by whether Error is nil.
type Result struct {
	Output string `json:"output"`
	Error  error  `json:"-"`
}

// MarshalJSON serializes the result with an explicit success flag, folding
// the error into a string so failures survive the trip through the model.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Output  string `json:"output"`
			Error   string `json:"error"`
		}{false, r.Output, r.Error.Error()})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Output  string `json:"output"`
	}{true, r.Output})
}

// Success returns true if the tool execution succeeded.
func (r Result) Success() bool {
	return r.Error == nil
}

// SuccessResult creates a successful tool result.
func SuccessResult(output string) Result {
	return Result{Output: output}
}

// FailureResult creates a failed tool result.
func FailureResult(err error) Result {
	return Result{Error: err}
}

// FailureResultf creates a failed tool result with a formatted message.
func FailureResultf(format string, args ...interface{}) Result {
	return Result{Error: fmt.Errorf(format, args...)}
}
