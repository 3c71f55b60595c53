package dto

import (
	"errors"
	"fmt"
	"net/http"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/credential"
	"botfleet/internal/domain/guest"
	"botfleet/internal/domain/registry"
	"botfleet/internal/domain/rpc"
)

// ErrorCode represents standardized error codes for DTOs
type ErrorCode string

const (
	// Validation error codes
	ErrorCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorCodeMissingField      ErrorCode = "MISSING_FIELD"
	ErrorCodeInvalidFormat     ErrorCode = "INVALID_FORMAT"
	ErrorCodeInvalidLength     ErrorCode = "INVALID_LENGTH"
	ErrorCodeInvalidCharacters ErrorCode = "INVALID_CHARACTERS"

	// Bot lifecycle error codes
	ErrorCodeBotNotFound         ErrorCode = "BOT_NOT_FOUND"
	ErrorCodeBotAlreadyExists    ErrorCode = "BOT_ALREADY_EXISTS"
	ErrorCodeBotAlreadyConnected ErrorCode = "BOT_ALREADY_CONNECTED"
	ErrorCodeBotNotConnected     ErrorCode = "BOT_NOT_CONNECTED"
	ErrorCodeBotInvalidState     ErrorCode = "BOT_INVALID_STATE"
	ErrorCodeBotExpired          ErrorCode = "BOT_EXPIRED"
	ErrorCodeBotNotApproved      ErrorCode = "BOT_NOT_APPROVED"
	ErrorCodeInvalidApproval     ErrorCode = "INVALID_APPROVAL_TRANSITION"
	ErrorCodePhoneRegistered     ErrorCode = "PHONE_ALREADY_REGISTERED"
	ErrorCodeCapacityExhausted   ErrorCode = "CAPACITY_EXHAUSTED"

	// Proxy error codes
	ErrorCodeInvalidProxy ErrorCode = "INVALID_PROXY"

	// Registry / placement error codes
	ErrorCodeServerNotFound            ErrorCode = "SERVER_NOT_FOUND"
	ErrorCodeServerAlreadyExists       ErrorCode = "SERVER_ALREADY_EXISTS"
	ErrorCodeGlobalRegistrationExists  ErrorCode = "GLOBAL_REGISTRATION_EXISTS"
	ErrorCodeGlobalRegistrationMissing ErrorCode = "GLOBAL_REGISTRATION_MISSING"
	ErrorCodeNoTenancyHasCapacity      ErrorCode = "NO_TENANCY_HAS_CAPACITY"
	ErrorCodeCrossTenancyWriteRejected ErrorCode = "CROSS_TENANCY_WRITE_REJECTED"

	// Cross-tenancy RPC error codes
	ErrorCodeRPCUnknownSource   ErrorCode = "RPC_UNKNOWN_SOURCE_SERVER"
	ErrorCodeRPCTargetMismatch  ErrorCode = "RPC_TARGET_MISMATCH"
	ErrorCodeRPCInvalidSig      ErrorCode = "RPC_INVALID_SIGNATURE"
	ErrorCodeRPCTokenExpired    ErrorCode = "RPC_TOKEN_EXPIRED"
	ErrorCodeRPCUnsupportedOp   ErrorCode = "RPC_UNSUPPORTED_OPERATION"
	ErrorCodeRPCLifecycleDirect ErrorCode = "RPC_LIFECYCLE_OVER_DIRECT_DB"

	// Guest auth error codes
	ErrorCodeGuestOTPExpired      ErrorCode = "GUEST_OTP_EXPIRED"
	ErrorCodeGuestOTPMismatch     ErrorCode = "GUEST_OTP_MISMATCH"
	ErrorCodeGuestNoPendingOTP    ErrorCode = "GUEST_NO_PENDING_SESSION"
	ErrorCodeGuestTokenExpired    ErrorCode = "GUEST_TOKEN_EXPIRED"
	ErrorCodeGuestTokenInvalid    ErrorCode = "GUEST_TOKEN_INVALID"
	ErrorCodeGuestBotNotEligible  ErrorCode = "GUEST_BOT_NOT_ELIGIBLE"
	ErrorCodeGuestConnTestFailed  ErrorCode = "GUEST_CONNECTION_TEST_FAILED"

	// Credential vault error codes
	ErrorCodeCredentialMalformed  ErrorCode = "CREDENTIAL_MALFORMED"
	ErrorCodeCredentialEmpty      ErrorCode = "CREDENTIAL_EMPTY"
	ErrorCodeCredentialTooSmall   ErrorCode = "CREDENTIAL_TOO_SMALL"
	ErrorCodeCredentialTooLarge   ErrorCode = "CREDENTIAL_TOO_LARGE"
	ErrorCodeCredentialMissing    ErrorCode = "CREDENTIAL_MISSING_FIELD"
	ErrorCodePhoneNotFound        ErrorCode = "CREDENTIAL_PHONE_NOT_FOUND"
	ErrorCodePhoneMismatch        ErrorCode = "CREDENTIAL_PHONE_MISMATCH"
	ErrorCodePhoneAlreadyElsewhere ErrorCode = "CREDENTIAL_PHONE_ALREADY_ELSEWHERE"

	// General error codes
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout            ErrorCode = "TIMEOUT"
	ErrorCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// String returns the string representation of ErrorCode
func (ec ErrorCode) String() string {
	return string(ec)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error
func (ec ErrorCode) HTTPStatusCode() int {
	switch ec {
	case ErrorCodeValidationFailed, ErrorCodeInvalidInput, ErrorCodeMissingField,
		ErrorCodeInvalidFormat, ErrorCodeInvalidLength, ErrorCodeInvalidCharacters,
		ErrorCodeInvalidProxy, ErrorCodeCredentialMalformed, ErrorCodeCredentialEmpty,
		ErrorCodeCredentialTooSmall, ErrorCodeCredentialTooLarge, ErrorCodeCredentialMissing,
		ErrorCodePhoneNotFound, ErrorCodePhoneMismatch:
		return http.StatusBadRequest
	case ErrorCodeBotNotFound, ErrorCodeServerNotFound, ErrorCodeGlobalRegistrationMissing:
		return http.StatusNotFound
	case ErrorCodeBotAlreadyExists, ErrorCodeServerAlreadyExists, ErrorCodePhoneRegistered,
		ErrorCodeGlobalRegistrationExists, ErrorCodePhoneAlreadyElsewhere:
		return http.StatusConflict
	case ErrorCodeBotInvalidState, ErrorCodeBotAlreadyConnected, ErrorCodeBotNotConnected,
		ErrorCodeBotNotApproved, ErrorCodeBotExpired, ErrorCodeInvalidApproval,
		ErrorCodeCrossTenancyWriteRejected, ErrorCodeRPCLifecycleDirect:
		return http.StatusUnprocessableEntity
	case ErrorCodeCapacityExhausted, ErrorCodeNoTenancyHasCapacity:
		return http.StatusConflict
	case ErrorCodeRPCUnknownSource, ErrorCodeRPCInvalidSig, ErrorCodeRPCTargetMismatch,
		ErrorCodeGuestTokenInvalid:
		return http.StatusUnauthorized
	case ErrorCodeRPCTokenExpired, ErrorCodeGuestTokenExpired, ErrorCodeGuestOTPExpired:
		return http.StatusGone
	case ErrorCodeGuestOTPMismatch, ErrorCodeGuestNoPendingOTP, ErrorCodeGuestBotNotEligible,
		ErrorCodeGuestConnTestFailed:
		return http.StatusUnprocessableEntity
	case ErrorCodeRPCUnsupportedOp:
		return http.StatusBadRequest
	case ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusRequestTimeout
	case ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DTOError represents a structured error for DTOs
type DTOError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	StatusCode int                    `json:"-"`
}

// Error implements the error interface
func (de *DTOError) Error() string {
	if de.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", de.Code, de.Message, de.Details)
	}
	return fmt.Sprintf("%s: %s", de.Code, de.Message)
}

// NewDTOError creates a new DTO error
func NewDTOError(code ErrorCode, message string) *DTOError {
	return &DTOError{
		Code:       code,
		Message:    message,
		Context:    make(map[string]interface{}),
		StatusCode: code.HTTPStatusCode(),
	}
}

// WithDetails adds details to the error
func (de *DTOError) WithDetails(details string) *DTOError {
	de.Details = details
	return de
}

// WithContext adds context to the error
func (de *DTOError) WithContext(key string, value interface{}) *DTOError {
	if de.Context == nil {
		de.Context = make(map[string]interface{})
	}
	de.Context[key] = value
	return de
}

// WithStatusCode sets a custom status code
func (de *DTOError) WithStatusCode(statusCode int) *DTOError {
	de.StatusCode = statusCode
	return de
}

// ToErrorResponse converts the DTO error to an error response
func (de *DTOError) ToErrorResponse() *ErrorResponse {
	resp := NewErrorResponse(de.Message, de.Code.String(), de.Details)
	if len(de.Context) > 0 {
		resp.Context = de.Context
	}
	return resp
}

// ErrorMapper maps domain errors to DTO errors
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps a domain error to a DTO error
func (em *ErrorMapper) MapError(err error) *DTOError {
	if err == nil {
		return nil
	}

	// Handle validation errors
	if validationErr, ok := err.(ValidationError); ok {
		return NewDTOError(ErrorCodeValidationFailed, validationErr.Message).
			WithContext("field", validationErr.Field).
			WithContext("tag", validationErr.Tag).
			WithContext("value", validationErr.Value)
	}

	if validationErrs, ok := err.(ValidationErrors); ok {
		return NewDTOError(ErrorCodeValidationFailed, "Multiple validation errors").
			WithContext("errors", validationErrs)
	}

	if botErr, ok := err.(*bot.BotError); ok {
		return em.mapBotError(botErr)
	}

	// Handle bot domain sentinel errors
	switch {
	case errors.Is(err, bot.ErrBotNotFound):
		return NewDTOError(ErrorCodeBotNotFound, "Bot not found")
	case errors.Is(err, bot.ErrBotAlreadyExists):
		return NewDTOError(ErrorCodeBotAlreadyExists, "Bot already exists")
	case errors.Is(err, bot.ErrBotAlreadyConnected):
		return NewDTOError(ErrorCodeBotAlreadyConnected, "Bot is already connected")
	case errors.Is(err, bot.ErrBotNotConnected):
		return NewDTOError(ErrorCodeBotNotConnected, "Bot is not connected")
	case errors.Is(err, bot.ErrBotInvalidState):
		return NewDTOError(ErrorCodeBotInvalidState, "Bot is in an invalid state for this operation")
	case errors.Is(err, bot.ErrBotExpired):
		return NewDTOError(ErrorCodeBotExpired, "Bot approval has expired")
	case errors.Is(err, bot.ErrBotNotApproved):
		return NewDTOError(ErrorCodeBotNotApproved, "Bot is not approved")
	case errors.Is(err, bot.ErrInvalidApprovalState):
		return NewDTOError(ErrorCodeInvalidApproval, "Invalid approval state transition")
	case errors.Is(err, bot.ErrPhoneAlreadyRegistered):
		return NewDTOError(ErrorCodePhoneRegistered, "Phone number already registered in fleet")
	case errors.Is(err, bot.ErrCapacityExhausted):
		return NewDTOError(ErrorCodeCapacityExhausted, "No tenancy has capacity for a new bot")
	case errors.Is(err, bot.ErrInvalidProxyURL):
		return NewDTOError(ErrorCodeInvalidProxy, "Invalid proxy URL")
	case errors.Is(err, bot.ErrInvalidBotID), errors.Is(err, bot.ErrInvalidPhoneNumber),
		errors.Is(err, bot.ErrInvalidTenancyName), errors.Is(err, bot.ErrInvalidStatus):
		return NewDTOError(ErrorCodeInvalidInput, err.Error())
	case errors.Is(err, bot.ErrValidationFailed):
		return NewDTOError(ErrorCodeValidationFailed, "Validation failed")

	// Registry / placement errors
	case errors.Is(err, registry.ErrServerNotFound):
		return NewDTOError(ErrorCodeServerNotFound, "Tenancy not found in catalog")
	case errors.Is(err, registry.ErrServerAlreadyExists):
		return NewDTOError(ErrorCodeServerAlreadyExists, "Tenancy already exists in catalog")
	case errors.Is(err, registry.ErrGlobalRegistrationExists):
		return NewDTOError(ErrorCodeGlobalRegistrationExists, "Phone number already has a global registration")
	case errors.Is(err, registry.ErrGlobalRegistrationMissing):
		return NewDTOError(ErrorCodeGlobalRegistrationMissing, "No global registration for phone number")
	case errors.Is(err, registry.ErrNoTenancyHasCapacity):
		return NewDTOError(ErrorCodeNoTenancyHasCapacity, "No tenancy in the fleet has spare capacity")
	case errors.Is(err, registry.ErrCrossTenancyWriteRejected):
		return NewDTOError(ErrorCodeCrossTenancyWriteRejected, "Cross-tenancy write rejected: missing target tenancy")
	case errors.Is(err, registry.ErrActivityNotFound), errors.Is(err, registry.ErrCommandNotFound):
		return NewDTOError(ErrorCodeServerNotFound, err.Error())

	// Cross-tenancy RPC errors
	case errors.Is(err, rpc.ErrUnknownSourceServer):
		return NewDTOError(ErrorCodeRPCUnknownSource, "Source server not present in catalog")
	case errors.Is(err, rpc.ErrTargetMismatch):
		return NewDTOError(ErrorCodeRPCTargetMismatch, "X-Target-Server does not match this tenancy")
	case errors.Is(err, rpc.ErrInvalidSignature):
		return NewDTOError(ErrorCodeRPCInvalidSig, "Invalid RPC token signature")
	case errors.Is(err, rpc.ErrTokenExpired):
		return NewDTOError(ErrorCodeRPCTokenExpired, "RPC token expired")
	case errors.Is(err, rpc.ErrUnsupportedOperation):
		return NewDTOError(ErrorCodeRPCUnsupportedOp, "Unsupported RPC operation")
	case errors.Is(err, rpc.ErrLifecycleOverDirectDB):
		return NewDTOError(ErrorCodeRPCLifecycleDirect, "Lifecycle commands must go through HTTP RPC, not the direct-DB plane")

	// Guest auth errors
	case errors.Is(err, guest.ErrOTPExpired):
		return NewDTOError(ErrorCodeGuestOTPExpired, "OTP expired")
	case errors.Is(err, guest.ErrOTPMismatch):
		return NewDTOError(ErrorCodeGuestOTPMismatch, "OTP does not match")
	case errors.Is(err, guest.ErrNoPendingSession):
		return NewDTOError(ErrorCodeGuestNoPendingOTP, "No pending guest session for this phone number")
	case errors.Is(err, guest.ErrTokenExpired):
		return NewDTOError(ErrorCodeGuestTokenExpired, "Guest token expired")
	case errors.Is(err, guest.ErrTokenInvalid):
		return NewDTOError(ErrorCodeGuestTokenInvalid, "Guest token invalid")
	case errors.Is(err, guest.ErrBotNotEligible):
		return NewDTOError(ErrorCodeGuestBotNotEligible, "Bot is not approved, is expired, or credentials are unverified")
	case errors.Is(err, guest.ErrConnectionTestFailed):
		return NewDTOError(ErrorCodeGuestConnTestFailed, "Connection test with supplied credentials failed")

	// Credential vault errors
	case errors.Is(err, credential.ErrCredentialMalformed):
		return NewDTOError(ErrorCodeCredentialMalformed, "Credential blob is not valid JSON")
	case errors.Is(err, credential.ErrCredentialEmpty):
		return NewDTOError(ErrorCodeCredentialEmpty, "Credential object is empty")
	case errors.Is(err, credential.ErrCredentialTooSmall):
		return NewDTOError(ErrorCodeCredentialTooSmall, "Credential blob smaller than minimum size")
	case errors.Is(err, credential.ErrCredentialTooLarge):
		return NewDTOError(ErrorCodeCredentialTooLarge, "Credential blob exceeds maximum decoded size")
	case errors.Is(err, credential.ErrMissingCredsObject), errors.Is(err, credential.ErrMissingRequiredField):
		return NewDTOError(ErrorCodeCredentialMissing, "Credential blob missing a required field")
	case errors.Is(err, credential.ErrPhoneNotFound):
		return NewDTOError(ErrorCodePhoneNotFound, "Could not extract phone number from credentials")
	case errors.Is(err, credential.ErrPhoneMismatch):
		return NewDTOError(ErrorCodePhoneMismatch, "Credentials phone number mismatch")
	case errors.Is(err, credential.ErrPhoneAlreadyElsewhere):
		return NewDTOError(ErrorCodePhoneAlreadyElsewhere, "Phone number already registered to another tenancy")
	}

	// Handle wrapped errors
	if wrappedErr := errors.Unwrap(err); wrappedErr != nil {
		if mappedErr := em.MapError(wrappedErr); mappedErr != nil {
			return mappedErr.WithDetails(err.Error())
		}
	}

	// Default to internal error
	return NewDTOError(ErrorCodeInternalError, "Internal server error").
		WithDetails(err.Error())
}

// mapBotError maps the structured *bot.BotError onto its equivalent DTO error,
// preferring its Code over a generic internal error.
func (em *ErrorMapper) mapBotError(botErr *bot.BotError) *DTOError {
	var code ErrorCode
	switch {
	case bot.IsNotFoundError(botErr):
		code = ErrorCodeBotNotFound
	case bot.IsPhoneRegisteredError(botErr):
		code = ErrorCodePhoneRegistered
	case bot.IsCapacityExhaustedError(botErr):
		code = ErrorCodeCapacityExhausted
	case bot.IsValidationError(botErr):
		code = ErrorCodeValidationFailed
	case bot.IsRepositoryError(botErr):
		code = ErrorCodeInternalError
	case bot.IsAlreadyExistsError(botErr):
		code = ErrorCodeBotAlreadyExists
	default:
		code = ErrorCodeInternalError
	}

	dto := NewDTOError(code, botErr.Message)
	if botErr.Cause != nil {
		dto = dto.WithDetails(botErr.Cause.Error())
	}
	for k, v := range botErr.Context {
		dto = dto.WithContext(k, v)
	}
	return dto
}

// MapErrorToResponse maps an error to an error response
func (em *ErrorMapper) MapErrorToResponse(err error) *ErrorResponse {
	dtoErr := em.MapError(err)
	return dtoErr.ToErrorResponse()
}

// ErrorResponseFactory creates standardized error responses
type ErrorResponseFactory struct {
	mapper *ErrorMapper
}

// NewErrorResponseFactory creates a new error response factory
func NewErrorResponseFactory() *ErrorResponseFactory {
	return &ErrorResponseFactory{
		mapper: NewErrorMapper(),
	}
}

// CreateValidationErrorResponse creates a validation error response
func (erf *ErrorResponseFactory) CreateValidationErrorResponse(errors []ValidationFieldError) *ValidationErrorResponse {
	return NewValidationErrorResponse(errors)
}

// CreateErrorResponse creates a generic error response
func (erf *ErrorResponseFactory) CreateErrorResponse(err error) *ErrorResponse {
	return erf.mapper.MapErrorToResponse(err)
}

// CreateNotFoundResponse creates a not found error response
func (erf *ErrorResponseFactory) CreateNotFoundResponse(resource string) *ErrorResponse {
	return NewDTOError(ErrorCodeBotNotFound, fmt.Sprintf("%s not found", resource)).ToErrorResponse()
}

// CreateConflictResponse creates a conflict error response
func (erf *ErrorResponseFactory) CreateConflictResponse(resource string) *ErrorResponse {
	return NewDTOError(ErrorCodeBotAlreadyExists, fmt.Sprintf("%s already exists", resource)).ToErrorResponse()
}

// CreateBadRequestResponse creates a bad request error response
func (erf *ErrorResponseFactory) CreateBadRequestResponse(message string) *ErrorResponse {
	return NewDTOError(ErrorCodeInvalidInput, message).ToErrorResponse()
}

// CreateInternalErrorResponse creates an internal error response
func (erf *ErrorResponseFactory) CreateInternalErrorResponse(details string) *ErrorResponse {
	return NewDTOError(ErrorCodeInternalError, "Internal server error").
		WithDetails(details).ToErrorResponse()
}

// CreateServiceUnavailableResponse creates a service unavailable error response
func (erf *ErrorResponseFactory) CreateServiceUnavailableResponse(service string) *ErrorResponse {
	return NewDTOError(ErrorCodeServiceUnavailable, fmt.Sprintf("%s service is unavailable", service)).ToErrorResponse()
}

// ErrorContext provides context for errors
type ErrorContext struct {
	RequestID  string                 `json:"request_id,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Operation  string                 `json:"operation,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
	Additional map[string]interface{} `json:"additional,omitempty"`
}

// NewErrorContext creates a new error context
func NewErrorContext() *ErrorContext {
	return &ErrorContext{
		Additional: make(map[string]interface{}),
	}
}

// WithRequestID sets the request ID
func (ec *ErrorContext) WithRequestID(requestID string) *ErrorContext {
	ec.RequestID = requestID
	return ec
}

// WithUserID sets the user ID
func (ec *ErrorContext) WithUserID(userID string) *ErrorContext {
	ec.UserID = userID
	return ec
}

// WithSessionID sets the session ID
func (ec *ErrorContext) WithSessionID(sessionID string) *ErrorContext {
	ec.SessionID = sessionID
	return ec
}

// WithOperation sets the operation
func (ec *ErrorContext) WithOperation(operation string) *ErrorContext {
	ec.Operation = operation
	return ec
}

// WithTimestamp sets the timestamp
func (ec *ErrorContext) WithTimestamp(timestamp string) *ErrorContext {
	ec.Timestamp = timestamp
	return ec
}

// AddAdditional adds additional context
func (ec *ErrorContext) AddAdditional(key string, value interface{}) *ErrorContext {
	ec.Additional[key] = value
	return ec
}

// ToMap converts the error context to a map
func (ec *ErrorContext) ToMap() map[string]interface{} {
	result := make(map[string]interface{})

	if ec.RequestID != "" {
		result["request_id"] = ec.RequestID
	}
	if ec.UserID != "" {
		result["user_id"] = ec.UserID
	}
	if ec.SessionID != "" {
		result["session_id"] = ec.SessionID
	}
	if ec.Operation != "" {
		result["operation"] = ec.Operation
	}
	if ec.Timestamp != "" {
		result["timestamp"] = ec.Timestamp
	}

	for k, v := range ec.Additional {
		result[k] = v
	}

	return result
}
