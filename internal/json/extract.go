// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often return JSON embedded in prose or markdown fences. This package
// bounds the candidate object with an explicit brace-depth scan that honors
// string and escape state, and only then hands the substring to the standard
// decoder. The decoder is never used for boundary-finding.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScanObject scans text starting at the first '{' at or after start and
// returns the substring spanning the balanced object. Braces inside quoted
// strings do not affect depth. Returns an error if no object starts at or
// after start, or if depth never returns to zero.
func ScanObject(text string, start int) (string, error) {
	open := strings.IndexByte(text[start:], '{')
	if open == -1 {
		return "", fmt.Errorf("no object found")
	}
	open += start

	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[open : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced braces: depth %d at end of input", depth)
}

// ExtractObject finds and returns the first balanced JSON object in a
// response, after stripping markdown code fences.
func ExtractObject(response string) (string, error) {
	response = stripMarkdownCodeBlocks(response)

	candidate, err := ScanObject(response, 0)
	if err != nil {
		preview := response
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		return "", fmt.Errorf("failed to extract JSON from response %q: %w", preview, err)
	}

	var test interface{}
	if err := json.Unmarshal([]byte(candidate), &test); err != nil {
		return "", fmt.Errorf("extracted candidate is not valid JSON: %w", err)
	}
	return candidate, nil
}

// ExtractInto extracts the first balanced JSON object from a response and
// unmarshals it into result.
func ExtractInto(response string, result interface{}) error {
	candidate, err := ExtractObject(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(candidate), result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// stripMarkdownCodeBlocks removes code fence markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}
