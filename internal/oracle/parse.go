package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNoJSONObject = errors.New("no JSON object in LLM response")

// extractJSON returns the first complete JSON object in text. Models wrap
// their answer in code fences or chatter; anything around the object is
// ignored.
func extractJSON(text []byte) (json.RawMessage, error) {
	rest := text
	for {
		i := bytes.IndexByte(rest, '{')
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", errNoJSONObject, truncate(text, 80))
		}
		rest = rest[i:]

		var obj json.RawMessage
		if err := json.NewDecoder(bytes.NewReader(rest)).Decode(&obj); err == nil {
			return obj, nil
		}
		rest = rest[1:]
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
