// Package normalize reduces the generative backend's shape-varying output
// into validated, independently persistable records.
//
// The backend may answer with a JSON-encoded string, a wrapper object, a
// single record object, or an array of records. Decoding never raises past
// this boundary: undecodable input yields zero records and ErrMalformedResult,
// and an invalid element inside a batch is skipped without aborting its
// siblings.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
)

// Shape tags the resolved structure of a backend response.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeWrapper       // object carrying the record list under a wrapper key
	ShapeSingle        // object that is itself one record
	ShapeList          // array of record objects
)

// Spec describes what a valid record looks like for one normalization pass.
type Spec struct {
	// WrapperKey is the key a wrapper object carries the list under,
	// e.g. "leads" for lead discovery or "posts" for the scoring pass.
	WrapperKey string
	// Required fields; a candidate missing any of them is skipped.
	Required []string
	// ListFields are fields declared as sequences. When one arrives as a
	// string it is parsed as embedded JSON; parse failure skips the record.
	ListFields []string
}

// Records normalizes raw backend output into an ordered slice of candidate
// records. The input may be a string (JSON-encoded), []byte, or an already
// decoded value. Per-record failures are logged and skipped; only a fully
// undecodable input returns ErrMalformedResult.
func Records(raw any, spec Spec) ([]map[string]any, error) {
	shape, elems, err := resolve(raw, spec)
	if err != nil {
		return nil, err
	}
	slog.Debug("resolved backend result", "shape", shapeName(shape), "candidates", len(elems))

	records := make([]map[string]any, 0, len(elems))
elements:
	for i, elem := range elems {
		rec, ok := elem.(map[string]any)
		if !ok {
			slog.Error("candidate is not an object, skipping", "index", i)
			continue
		}
		for _, field := range spec.Required {
			if _, present := rec[field]; !present {
				slog.Error("candidate missing required field, skipping", "index", i, "field", field)
				continue elements
			}
		}
		for _, field := range spec.ListFields {
			s, isString := rec[field].(string)
			if !isString {
				continue
			}
			var parsed []any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				slog.Error("candidate list field is not valid embedded JSON, skipping",
					"index", i, "field", field, "error", err)
				continue elements
			}
			rec[field] = parsed
		}
		records = append(records, rec)
	}
	return records, nil
}

// Decode normalizes and then maps each surviving record onto T via a JSON
// round trip. Fields T does not declare are dropped silently; a record that
// still fails to decode is skipped, not fatal.
func Decode[T any](raw any, spec Spec) ([]T, error) {
	records, err := Records(raw, spec)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for i, rec := range records {
		buf, err := json.Marshal(rec)
		if err != nil {
			slog.Error("record not re-encodable, skipping", "index", i, "error", err)
			continue
		}
		var v T
		if err := json.Unmarshal(buf, &v); err != nil {
			slog.Error("record does not fit target schema, skipping", "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// resolve decodes string input and classifies the result, in priority order:
// wrapper object, single record, record list.
func resolve(raw any, spec Spec) (Shape, []any, error) {
	switch v := raw.(type) {
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(CleanJSON(v)), &decoded); err != nil {
			return ShapeInvalid, nil, fmt.Errorf("%w: %v", domain.ErrMalformedResult, err)
		}
		return resolve(decoded, spec)
	case []byte:
		return resolve(string(v), spec)
	case map[string]any:
		if spec.WrapperKey != "" {
			if wrapped, ok := v[spec.WrapperKey]; ok {
				list, ok := wrapped.([]any)
				if !ok {
					return ShapeInvalid, nil, fmt.Errorf("%w: wrapper key %q does not hold a list",
						domain.ErrMalformedResult, spec.WrapperKey)
				}
				return ShapeWrapper, list, nil
			}
		}
		if hasAll(v, spec.Required) {
			return ShapeSingle, []any{v}, nil
		}
		return ShapeInvalid, nil, fmt.Errorf("%w: object matches neither wrapper nor record shape",
			domain.ErrMalformedResult)
	case []any:
		return ShapeList, v, nil
	default:
		return ShapeInvalid, nil, fmt.Errorf("%w: unexpected type %T", domain.ErrMalformedResult, raw)
	}
}

func hasAll(m map[string]any, fields []string) bool {
	for _, f := range fields {
		if _, ok := m[f]; !ok {
			return false
		}
	}
	return true
}

func shapeName(s Shape) string {
	switch s {
	case ShapeWrapper:
		return "wrapper"
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	default:
		return "invalid"
	}
}

// CleanJSON strips markdown code fences and leading/trailing prose the
// backend sometimes wraps around its JSON payload.
func CleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	input = strings.TrimSpace(input)

	if len(input) > 0 && input[0] != '{' && input[0] != '[' && input[0] != '"' {
		start := strings.IndexAny(input, "{[")
		if start == -1 {
			return input
		}
		end := strings.LastIndexAny(input, "}]")
		if end > start {
			input = input[start : end+1]
		}
	}
	return input
}
