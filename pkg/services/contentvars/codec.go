// Package contentvars encodes the variable selections stored on a panel detail.
//
// The stored form is a JSON object mapping a variable name to its selected values:
//
//	{"store": ["a", "b"], "item": ["x"]}
package contentvars

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
)

// Decode parses text. Empty text, a JSON null and anything that fails to parse yield def.
func Decode(text string, def domain.ContentVariables) domain.ContentVariables {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return def
	}

	var vars domain.ContentVariables
	if err := json.Unmarshal([]byte(trimmed), &vars); err != nil || vars == nil {
		return def
	}
	return vars
}

// Encode serialises vars. A nil map is encoded as an empty object.
func Encode(vars domain.ContentVariables) (string, error) {
	if vars == nil {
		vars = domain.ContentVariables{}
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("encode content variables: %w", err)
	}
	return string(data), nil
}

// Update sets name to values in the blob held by existing and returns the new blob.
// The whole blob is rewritten, so concurrent updates of different variables race.
func Update(existing, name string, values []string) (string, error) {
	vars := Decode(existing, domain.ContentVariables{})

	next := make(domain.ContentVariables, len(vars)+1)
	for k, v := range vars {
		next[k] = v
	}
	if values == nil {
		values = []string{}
	}
	next[name] = values

	return Encode(next)
}

// Selected returns the values stored for name, or nil.
func Selected(text, name string) []string {
	return Decode(text, nil)[name]
}
