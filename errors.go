package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a rejection reason that automated callers can switch on.
type ErrorCode string

const (
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeKeyRefDenied         ErrorCode = "KEY_REF_DENIED"
	CodeKeyRefNotAllowlisted ErrorCode = "KEY_REF_NOT_ALLOWLISTED"
	CodeEnclaveDisabled      ErrorCode = "ENCLAVE_DISABLED"
	CodeCryptoFailure        ErrorCode = "CRYPTO_FAILURE"
	CodeAdapterFailure       ErrorCode = "ADAPTER_FAILURE"
	CodeAdapterConfig        ErrorCode = "ADAPTER_CONFIG"
	CodeBadRequest           ErrorCode = "BAD_REQUEST"
)

// EnclaveError is the only error type that crosses the enclave boundary.
// Status carries the HTTP status the transport layer should map it to.
type EnclaveError struct {
	Code    ErrorCode
	Status  int
	Message string
	cause   error
}

func (e *EnclaveError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EnclaveError) Unwrap() error {
	return e.cause
}

// Retryable reports whether a retry of the same request may succeed.
// Policy and configuration rejections are final; adapter failures may be transient.
func (e *EnclaveError) Retryable() bool {
	return e.Code == CodeAdapterFailure
}

func NewAuthError(message string) *EnclaveError {
	return &EnclaveError{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

func NewPolicyError(code ErrorCode, message string) *EnclaveError {
	return &EnclaveError{Code: code, Status: http.StatusForbidden, Message: message}
}

func NewConfigError(message string) *EnclaveError {
	return &EnclaveError{Code: CodeEnclaveDisabled, Status: http.StatusServiceUnavailable, Message: message}
}

func NewCryptoError(message string, cause error) *EnclaveError {
	return &EnclaveError{Code: CodeCryptoFailure, Status: http.StatusInternalServerError, Message: message, cause: cause}
}

func NewAdapterError(message string, cause error) *EnclaveError {
	return &EnclaveError{Code: CodeAdapterFailure, Status: http.StatusBadGateway, Message: message, cause: cause}
}

func NewAdapterConfigError(message string) *EnclaveError {
	return &EnclaveError{Code: CodeAdapterConfig, Status: http.StatusInternalServerError, Message: message}
}

func NewBadRequestError(message string) *EnclaveError {
	return &EnclaveError{Code: CodeBadRequest, Status: http.StatusBadRequest, Message: message}
}

// AsEnclaveError normalizes an arbitrary error into an EnclaveError,
// wrapping unknown errors as internal adapter failures.
func AsEnclaveError(err error) *EnclaveError {
	var ee *EnclaveError
	if errors.As(err, &ee) {
		return ee
	}
	return &EnclaveError{Code: CodeAdapterFailure, Status: http.StatusInternalServerError, Message: "internal error", cause: err}
}
