// Filesystem inspection tools.
//
// These give the Scout phase a baseline capability set for gathering
// evidence from a component's source tree. Deeper analysis tools (AST
// walkers, call-graph queries) are registered by the embedding application.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadSourceTool reads a source file, optionally bounded to a line range.
type ReadSourceTool struct {
	maxBytes int64
	rootDir  string
}

// NewReadSourceTool creates a read_source tool rooted at rootDir.
func NewReadSourceTool(rootDir string, maxBytes int64) *ReadSourceTool {
	return &ReadSourceTool{rootDir: rootDir, maxBytes: maxBytes}
}

// Definition returns the tool definition.
func (t *ReadSourceTool) Definition() Definition {
	return Definition{
		Name:        "read_source",
		Description: "Read a source file from the component workspace. Returns the file content, optionally limited to a line range.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "File path relative to the workspace root.",
				},
				"start_line": map[string]interface{}{
					"type":        "integer",
					"description": "First line to return (1-indexed, optional).",
				},
				"end_line": map[string]interface{}{
					"type":        "integer",
					"description": "Last line to return (inclusive, optional).",
				},
			},
			"required": []string{"path"},
		},
	}
}

// Execute reads the requested file.
func (t *ReadSourceTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Path      string `json:"path"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return FailureResultf("invalid arguments: %v", err), nil
	}
	if params.Path == "" {
		return FailureResultf("path is required"), nil
	}

	full, err := t.resolve(params.Path)
	if err != nil {
		return FailureResult(err), nil
	}

	info, err := os.Stat(full)
	if err != nil {
		return FailureResultf("cannot stat %s: %v", params.Path, err), nil
	}
	if t.maxBytes > 0 && info.Size() > t.maxBytes {
		return FailureResultf("file %s exceeds %d byte limit", params.Path, t.maxBytes), nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return FailureResultf("cannot read %s: %v", params.Path, err), nil
	}

	content := string(data)
	if params.StartLine > 0 || params.EndLine > 0 {
		content = sliceLines(content, params.StartLine, params.EndLine)
	}
	return SuccessResult(content), nil
}

func (t *ReadSourceTool) resolve(path string) (string, error) {
	full := filepath.Join(t.rootDir, path)
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	rootAbs, err := filepath.Abs(t.rootDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve workspace root: %w", err)
	}
	// A plain prefix check would admit sibling directories like <root>-evil.
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the workspace root", path)
	}
	return abs, nil
}

func sliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// ListDirectoryTool lists entries under a workspace directory.
type ListDirectoryTool struct {
	rootDir string
}

// NewListDirectoryTool creates a list_directory tool rooted at rootDir.
func NewListDirectoryTool(rootDir string) *ListDirectoryTool {
	return &ListDirectoryTool{rootDir: rootDir}
}

// Definition returns the tool definition.
func (t *ListDirectoryTool) Definition() Definition {
	return Definition{
		Name:        "list_directory",
		Description: "List files and subdirectories under a workspace directory.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory path relative to the workspace root. Defaults to the root.",
				},
			},
		},
	}
}

// Execute lists the requested directory.
func (t *ListDirectoryTool) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var params struct {
		Path string `json:"path"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return FailureResultf("invalid arguments: %v", err), nil
		}
	}

	dir := filepath.Join(t.rootDir, params.Path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return FailureResultf("cannot list %s: %v", params.Path, err), nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return SuccessResult(strings.Join(names, "\n")), nil
}

// DefaultRegistry creates a registry with the baseline filesystem tools.
func DefaultRegistry(rootDir string) (*Registry, error) {
	registry := NewRegistry()
	defaults := []Tool{
		NewReadSourceTool(rootDir, 1024*1024),
		NewListDirectoryTool(rootDir),
	}
	for _, tool := range defaults {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register default tools: %w", err)
		}
	}
	return registry, nil
}
