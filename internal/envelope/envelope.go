// Package envelope turns a raw server answer into a tagged Result.
//
// The server speaks two wire shapes. Legacy book endpoints answer 2xx with
// {ok, error}; every other endpoint signals failure with a non-2xx status and
// carries {error} or {message}. Each endpoint is bound to exactly one Policy.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Policy names the wire shape an endpoint uses.
type Policy int

const (
	// PolicyStatus: non-2xx is failure whatever the body says.
	PolicyStatus Policy = iota + 1
	// PolicyEnvelope: success only on 2xx with ok=true.
	PolicyEnvelope
)

func (p Policy) String() string {
	switch p {
	case PolicyStatus:
		return "status"
	case PolicyEnvelope:
		return "envelope"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	return p == PolicyStatus || p == PolicyEnvelope
}

// Result is either Success or Failure.
type Result interface {
	isResult()
}

// Success carries the server's message, which may be empty.
type Success struct {
	Message string
}

// Failure carries the server's error text, which may be empty.
type Failure struct {
	Status int
	Error  string
}

func (Success) isResult() {}
func (Failure) isResult() {}

type wireBody struct {
	OK      *bool  `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Decode reads body once and applies p. The returned error is non-nil only when
// the body is not a JSON object.
func Decode(status int, body []byte, p Policy) (Result, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("decode response: unknown %s", p)
	}

	var wire wireBody
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode response: empty body (status %d)", status)
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	success := status >= 200 && status < 300
	if success && p == PolicyEnvelope {
		success = wire.OK != nil && *wire.OK
	}

	if !success {
		return Failure{Status: status, Error: wire.Error}, nil
	}
	return Success{Message: wire.Message}, nil
}
