// Package queue orders pending laundry work and derives the broadcast topics
// live viewers subscribe to.
package queue

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

const allToken = "ALL"

// NormalizeString canonicalizes a comma-delimited status filter.
func NormalizeString(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	return NormalizeList(strings.Split(raw, ","))
}

// NormalizeList canonicalizes a list of status tokens. Elements are not split
// on commas. ALL anywhere means no filter.
func NormalizeList(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		s := strings.ToUpper(strings.TrimSpace(t))
		if s == "" {
			continue
		}
		if s == allToken {
			return []string{}
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// StatusFilter is the status field of queue payloads: absent, a delimited
// string, or a list of tokens.
type StatusFilter struct {
	tokens []string
	list   bool
}

func FilterFromString(raw string) StatusFilter {
	return StatusFilter{tokens: []string{raw}}
}

func FilterFromList(tokens ...string) StatusFilter {
	return StatusFilter{tokens: tokens, list: true}
}

func FilterFromStatuses(statuses ...types.Status) StatusFilter {
	tokens := make([]string, len(statuses))
	for i, s := range statuses {
		tokens[i] = string(s)
	}
	return FilterFromList(tokens...)
}

func (f StatusFilter) Normalize() []string {
	if f.list {
		return NormalizeList(f.tokens)
	}
	if len(f.tokens) == 0 {
		return []string{}
	}
	return NormalizeString(f.tokens[0])
}

func (f *StatusFilter) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = StatusFilter{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FilterFromString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return &ValidationError{Message: "status must be a string or a list of strings"}
	}
	*f = FilterFromList(list...)
	return nil
}

func (f StatusFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Normalize())
}
