// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain-specific codes name the operation that failed. Clients branch on the
// code, never on the message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_channel",
//	  "message": "invalid channel name"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidChannel   = "invalid_channel"
	ErrCodeStorageFailed    = "storage_failed"
	ErrCodeDigestFailed     = "digest_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
