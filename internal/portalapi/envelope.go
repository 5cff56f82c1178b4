package portalapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const maxEnvelopeDepth = 4

var (
	errEmptyPayload = errors.New("empty payload")
	errTooDeep      = errors.New("envelope nested too deep")
)

// GatewayError is a non-2xx status carried inside a proxy envelope that was
// itself delivered with 200.
type GatewayError struct {
	StatusCode int
	Payload    json.RawMessage
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway status %d", e.StatusCode)
}

var listKeys = []string{"data", "items", "Items", "activities", "skills"}

// Unwrap normalizes every response shape the portal has been seen to return
// into the bare payload: raw arrays and objects, {data|items: ...} wrappers,
// and {statusCode, body: "<json>"} proxy envelopes whose body may be encoded
// more than once.
func Unwrap(raw []byte) (json.RawMessage, error) {
	return unwrap(raw, 0)
}

func unwrap(raw []byte, depth int) (json.RawMessage, error) {
	if depth > maxEnvelopeDepth {
		return nil, errTooDeep
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errEmptyPayload
	}

	switch raw[0] {
	case '[':
		return json.RawMessage(raw), nil
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		return unwrap([]byte(inner), depth+1)
	case '{':
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", raw[0])
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	if body, ok := obj["body"]; ok {
		status := 0
		if sc, ok := obj["statusCode"]; ok {
			if err := json.Unmarshal(sc, &status); err != nil {
				return nil, fmt.Errorf("statusCode: %w", err)
			}
		}
		payload, err := unwrap(body, depth+1)
		if status >= 300 {
			return nil, &GatewayError{StatusCode: status, Payload: payload}
		}
		return payload, err
	}

	for _, key := range listKeys {
		if inner, ok := obj[key]; ok {
			return unwrap(inner, depth+1)
		}
	}
	return json.RawMessage(raw), nil
}

// unwrapList unwraps and requires the payload to be an array.
func unwrapList(raw []byte) ([]json.RawMessage, error) {
	payload, err := Unwrap(raw)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("expected a list: %w", err)
	}
	return items, nil
}
