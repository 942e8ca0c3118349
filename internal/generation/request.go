package generation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mzurek/cardsmith/pkg/models"
)

// Request is a normalized, validated generation request. Hint is empty
// when the caller omitted it.
type Request struct {
	SourceText string
	Hint       string
}

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

// ParseRequest validates an untyped request body. Wrong-typed fields are
// reported as ordinary validation errors, never as a failure of the
// parser itself; err is non-nil only for malformed JSON.
func ParseRequest(body []byte) (*Request, FieldErrors, error) {
	var raw struct {
		SourceText any `json:"source_text"`
		Hint       any `json:"hint"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON in request body: %w", err)
	}

	fieldErrs := FieldErrors{}
	req := &Request{}

	switch v := raw.SourceText.(type) {
	case nil:
		fieldErrs.add("source_text", "source_text is required")
	case string:
		trimmed := strings.TrimSpace(v)
		if n := utf8.RuneCountInString(trimmed); n < models.SourceTextMinLen {
			fieldErrs.add("source_text", fmt.Sprintf("source_text must be at least %d characters", models.SourceTextMinLen))
		} else if n > models.SourceTextMaxLen {
			fieldErrs.add("source_text", fmt.Sprintf("source_text must not exceed %d characters", models.SourceTextMaxLen))
		}
		req.SourceText = trimmed
	default:
		fieldErrs.add("source_text", "source_text must be a string")
	}

	switch v := raw.Hint.(type) {
	case nil:
		// Optional field; omission is always valid.
	case string:
		trimmed := strings.TrimSpace(v)
		if utf8.RuneCountInString(trimmed) > models.HintMaxLen {
			fieldErrs.add("hint", fmt.Sprintf("hint must not exceed %d characters", models.HintMaxLen))
		}
		req.Hint = trimmed
	default:
		fieldErrs.add("hint", "hint must be a string")
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}

	return req, nil, nil
}
