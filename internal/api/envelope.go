package api

import (
	"encoding/json"
	"strings"
)

// envelope is the wrapper the server puts around every result.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`

	// body is the whole response, needed when the payload sits at the top level.
	body json.RawMessage
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	env.body = body
	return &env, nil
}

// text returns the server-provided message, preferring "message" over "error".
func (e *envelope) text() string {
	if s := rawString(e.Message); s != "" {
		return s
	}
	return rawString(e.Error)
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// present reports whether raw holds a JSON value other than null.
func present(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}
