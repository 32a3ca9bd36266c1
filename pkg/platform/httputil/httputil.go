package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "docverify/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Internal errors never expose their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" && domainErr.Code != dErrors.CodeInternal {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, status, response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodePayloadTooLarge:
		return "payload_too_large"
	case dErrors.CodeUnsupportedMedia:
		return "unsupported_media_type"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeUpstreamFailure:
		return "bad_gateway"
	default:
		return "internal_error"
	}
}
