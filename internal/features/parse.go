package features

import (
	"encoding/json"
	"strings"
)

// ListField is the result of parsing a serialized list cell. Valid is false
// when the text is not a list at all; a well-formed list of the wrong length
// is still Valid and is rejected by the caller.
type ListField struct {
	Items []string
	Valid bool
}

// Malformed is the zero ListField
var Malformed = ListField{}

// ParseList parses a JSON string array, or the single-quoted list repr
// (['BOS', 'NY']) written by earlier versions of the pipeline. It never fails;
// unparseable text yields Malformed.
func ParseList(s string) ListField {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Malformed
	}

	var items []string
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		return ListField{Items: items, Valid: true}
	}

	items, ok := parseQuotedList(s[1 : len(s)-1])
	if !ok {
		return Malformed
	}
	return ListField{Items: items, Valid: true}
}

// parseQuotedList splits the body of a list whose elements are each wrapped
// in single or double quotes. Backslash escapes the next character.
func parseQuotedList(body string) ([]string, bool) {
	items := []string{}
	i := 0
	skipSpace := func() {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n') {
			i++
		}
	}

	skipSpace()
	if i == len(body) {
		return items, true
	}

	for {
		skipSpace()
		if i >= len(body) || (body[i] != '\'' && body[i] != '"') {
			return nil, false
		}
		quote := body[i]
		i++

		var b strings.Builder
		closed := false
		for i < len(body) {
			c := body[i]
			i++
			if c == '\\' && i < len(body) {
				b.WriteByte(body[i])
				i++
				continue
			}
			if c == quote {
				closed = true
				break
			}
			b.WriteByte(c)
		}
		if !closed {
			return nil, false
		}
		items = append(items, b.String())

		skipSpace()
		if i == len(body) {
			return items, true
		}
		if body[i] != ',' {
			return nil, false
		}
		i++
	}
}
