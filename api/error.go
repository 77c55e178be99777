package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ApiError is the backend's structured error body.
// `Code == 422` carries field-level validation detail in Errors.
type ApiError struct {
	Name    string              `json:"name"`
	Code    int                 `json:"code"`
	Status  string              `json:"status,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (self *ApiError) Error() string {
	return fmt.Sprintf("api error %d: %s", self.Code, self.Message)
}

// HttpError is any non-2xx response. The raw body is kept so callers can do
// their own classification; when the body is a structured ApiError it is
// parsed into Api.
type HttpError struct {
	StatusCode int
	Body       []byte
	Api        *ApiError
}

func (self *HttpError) Error() string {
	if self.Api != nil {
		return self.Api.Error()
	}
	message := strings.TrimSpace(string(self.Body))
	if message == "" {
		message = http.StatusText(self.StatusCode)
	}
	return fmt.Sprintf("http error %d: %s", self.StatusCode, message)
}

func newHttpError(statusCode int, body []byte) *HttpError {
	httpError := &HttpError{
		StatusCode: statusCode,
		Body:       body,
	}
	apiError := &ApiError{}
	if err := json.Unmarshal(body, apiError); err == nil && apiError.Name == "ApiError" {
		httpError.Api = apiError
	}
	return httpError
}

func AsHttpError(err error) *HttpError {
	var httpError *HttpError
	if errors.As(err, &httpError) {
		return httpError
	}
	return nil
}

// AsApiError extracts the structured backend error, or nil when the error
// is a transport failure or an unstructured response.
func AsApiError(err error) *ApiError {
	if httpError := AsHttpError(err); httpError != nil {
		return httpError.Api
	}
	var apiError *ApiError
	if errors.As(err, &apiError) {
		return apiError
	}
	return nil
}

// IsUnauthorized reports a session-expiry failure (401), the one condition
// the fetch layer recovers from via refresh.
func IsUnauthorized(err error) bool {
	if httpError := AsHttpError(err); httpError != nil {
		return httpError.StatusCode == http.StatusUnauthorized
	}
	return false
}

func IsForbidden(err error) bool {
	if httpError := AsHttpError(err); httpError != nil {
		return httpError.StatusCode == http.StatusForbidden
	}
	return false
}

func IsValidation(err error) bool {
	if httpError := AsHttpError(err); httpError != nil {
		return httpError.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// FieldErrors returns the validation messages for one field, for form
// binding. Empty when the error carries no field detail.
func FieldErrors(err error, field string) []string {
	apiError := AsApiError(err)
	if apiError == nil {
		return nil
	}
	return apiError.Errors[field]
}
