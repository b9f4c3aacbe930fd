// Package gateway implements the token-authenticated WebSocket RPC surface
// (C11, §4.8): connection upgrade, request/response/event framing, method
// dispatch, rate-limited auth, security headers, and TLS bootstrap.
package gateway

import "encoding/json"

// Closed RPC error code set (§6).
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION"
	CodeBudgetExceeded = "BUDGET_EXCEEDED"
	CodeInternal       = "INTERNAL"
)

// Request is an inbound WebSocket frame of the request shape (§6).
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is an outbound WebSocket frame carrying either a result or an
// error, matched to a prior request by id (§6).
type Response struct {
	ID     string    `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *RPCError `json:"error,omitempty"`
}

// RPCError is the {code, message} shape carried in an error Response (§6).
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event is a server-pushed WebSocket frame with no request id (§6).
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func errorResponse(id, code, message string) Response {
	return Response{ID: id, Error: &RPCError{Code: code, Message: message}}
}

func resultResponse(id string, result any) Response {
	return Response{ID: id, Result: result}
}
