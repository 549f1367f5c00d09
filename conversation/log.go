// Package conversation provides the ordered message log and the
// model-driven tool-calling loop.
//
// Information Hiding:
// - Turn pairing invariants enforced inside Log
// - Loop state machine internals hidden
package conversation

import (
	"fmt"

	"github.com/richinex/spelunk/llm"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one conversation entry. Assistant turns may request tool
// invocations; tool turns correlate back to one of those requests.
type Turn struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// Log is an append-only sequence of turns. It enforces the pairing
// invariant: every tool turn must correlate to a call id requested by the
// immediately preceding assistant turn, and an assistant turn requesting K
// invocations must receive its tool results before any further assistant
// turn is appended.
type Log struct {
	turns   []Turn
	pending map[string]bool // call ids awaiting a result turn
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{pending: make(map[string]bool)}
}

// Append adds a turn, enforcing the pairing invariant.
func (l *Log) Append(turn Turn) error {
	switch turn.Role {
	case RoleSystem, RoleUser:
		if len(l.pending) > 0 {
			return fmt.Errorf("%d tool results still pending", len(l.pending))
		}
	case RoleAssistant:
		if len(l.pending) > 0 {
			return fmt.Errorf("assistant turn appended while %d tool results pending", len(l.pending))
		}
		for _, tc := range turn.ToolCalls {
			if tc.ID == "" {
				return fmt.Errorf("tool call for %q has empty id", tc.Name)
			}
			if l.pending[tc.ID] {
				return fmt.Errorf("duplicate tool call id %q", tc.ID)
			}
			l.pending[tc.ID] = true
		}
	case RoleTool:
		if !l.pending[turn.ToolCallID] {
			return fmt.Errorf("tool result %q does not match a pending call id", turn.ToolCallID)
		}
		delete(l.pending, turn.ToolCallID)
	default:
		return fmt.Errorf("unknown role %q", turn.Role)
	}

	l.turns = append(l.turns, turn)
	return nil
}

// Turns returns a copy of the logged turns.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}

// Last returns the most recent turn, or nil for an empty log.
func (l *Log) Last() *Turn {
	if len(l.turns) == 0 {
		return nil
	}
	return &l.turns[len(l.turns)-1]
}

// LastAssistant returns the most recent assistant turn, or nil.
func (l *Log) LastAssistant() *Turn {
	for i := len(l.turns) - 1; i >= 0; i-- {
		if l.turns[i].Role == RoleAssistant {
			return &l.turns[i]
		}
	}
	return nil
}

// SkipPending records that a pending invocation was abandoned without a
// result turn. Used when the resolver does not recognize the tool name:
// the loop keeps going rather than failing the whole turn.
func (l *Log) SkipPending(callID string) error {
	if !l.pending[callID] {
		return fmt.Errorf("call id %q is not pending", callID)
	}
	delete(l.pending, callID)
	return nil
}

// PendingCalls returns the number of tool invocations still awaiting results.
func (l *Log) PendingCalls() int {
	return len(l.pending)
}

// Messages converts the log to provider chat messages.
func (l *Log) Messages() []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(l.turns))
	for i, t := range l.turns {
		out[i] = llm.ChatMessage{
			Role:       string(t.Role),
			Content:    t.Content,
			ToolCalls:  t.ToolCalls,
			ToolCallID: t.ToolCallID,
		}
	}
	return out
}
