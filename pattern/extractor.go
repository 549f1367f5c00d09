// Package pattern recovers the Scout phase's architectural classification
// from free-form model output.
//
// The classification is advisory: when anything about it is off the extractor
// returns nil and the caller falls back to a generic synthesis strategy. No
// partial classification ever escapes this package.
package pattern

import (
	stdjson "encoding/json"
	"strings"

	"github.com/richinex/spelunk/internal/json"
	"github.com/richinex/spelunk/model"
)

// classificationKey marks the object the Scout prompt asks the model to emit.
const classificationKey = "scout_pattern_identification"

// minOutputLength guards against extracting from truncated or trivially
// short output, which cannot carry a meaningful classification.
const minOutputLength = 50

// Extract parses a Scout conclusion and returns its classification, or nil
// when none can be recovered. It never returns a partially valid result.
func Extract(output string) *model.Classification {
	if len(output) < minOutputLength {
		return nil
	}

	// Prefer the marked object; a conclusion may contain other JSON
	// fragments (code snippets, example payloads) before it.
	start := strings.Index(output, classificationKey)
	if start == -1 {
		start = 0
	}

	candidate, err := json.ScanObject(output, start)
	if err != nil {
		return nil
	}

	classification := decode(candidate)
	if classification == nil {
		return nil
	}
	if err := classification.Validate(); err != nil {
		return nil
	}
	return classification
}

// decode unmarshals a candidate object, unwrapping the envelope form
// {"scout_pattern_identification": {...}} when present.
func decode(candidate string) *model.Classification {
	var envelope struct {
		Inner *model.Classification `json:"scout_pattern_identification"`
	}
	if err := stdjson.Unmarshal([]byte(candidate), &envelope); err != nil {
		return nil
	}
	if envelope.Inner != nil {
		return envelope.Inner
	}

	var direct model.Classification
	if err := stdjson.Unmarshal([]byte(candidate), &direct); err != nil {
		return nil
	}
	return &direct
}
