package service

import (
	"errors"

	"github.com/couchcryptid/montreal-aqi/internal/adapter/opendata"
)

// Error codes reported in error envelopes.
const (
	CodeNoArguments        = "NO_ARGUMENTS"
	CodeNoData             = "NO_DATA"
	CodeAPIUnreachable     = "API_UNREACHABLE"
	CodeAPIInvalidResponse = "API_INVALID_RESPONSE"
	CodeAPIError           = "API_ERROR"
)

// ErrorCode maps an error returned by the service to its envelope code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return CodeNoData
	case errors.Is(err, opendata.ErrUnreachable):
		return CodeAPIUnreachable
	case errors.Is(err, opendata.ErrInvalidResponse):
		return CodeAPIInvalidResponse
	default:
		return CodeAPIError
	}
}
