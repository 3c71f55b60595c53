package dto

import (
	"fmt"
	"net/url"
	"strings"

	"botfleet/pkg/validator"
)

// DTOValidator provides validation methods for DTOs
type DTOValidator struct {
	validator validator.Validator
}

// NewDTOValidator creates a new DTO validator
func NewDTOValidator(v validator.Validator) *DTOValidator {
	return &DTOValidator{validator: v}
}

// ValidateRegisterBotRequest validates a bot registration request
func (dv *DTOValidator) ValidateRegisterBotRequest(req *RegisterBotRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := dv.validator.Validate(req); err != nil {
		return err
	}
	return nil
}

// ValidateApproveBotRequest validates a bot approval request
func (dv *DTOValidator) ValidateApproveBotRequest(req *ApproveBotRequest) error {
	return dv.validator.Validate(req)
}

// ValidateSetProxyRequest validates a proxy assignment request
func (dv *DTOValidator) ValidateSetProxyRequest(req *SetProxyRequest) error {
	req.ProxyURL = strings.TrimSpace(req.ProxyURL)
	if err := dv.validator.Validate(req); err != nil {
		return err
	}
	return NewProxyURLValidator().Validate(req.ProxyURL)
}

// ValidateBatchOperateRequest validates an admin batch operation request
func (dv *DTOValidator) ValidateBatchOperateRequest(req *BatchOperateRequest) error {
	return dv.validator.Validate(req)
}

// ValidateRequestOTPRequest validates Path B's first-call payload
func (dv *DTOValidator) ValidateRequestOTPRequest(req *RequestOTPRequest) error {
	req.Phone = strings.TrimSpace(req.Phone)
	return dv.validator.Validate(req)
}

// ValidateVerifyOTPRequest validates Path B's second-call payload
func (dv *DTOValidator) ValidateVerifyOTPRequest(req *VerifyOTPRequest) error {
	req.Phone = strings.TrimSpace(req.Phone)
	req.OTP = strings.TrimSpace(req.OTP)
	return dv.validator.Validate(req)
}

// ValidateRegisterServerRequest validates an admin tenancy-catalog registration
func (dv *DTOValidator) ValidateRegisterServerRequest(req *RegisterServerRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	return dv.validator.Validate(req)
}

// ValidateCommandRequest validates an admin declarative-command payload
func (dv *DTOValidator) ValidateCommandRequest(req *CommandRequest) error {
	req.Trigger = strings.TrimSpace(req.Trigger)
	return dv.validator.Validate(req)
}

// ValidatePaginationRequest validates a pagination request
func (dv *DTOValidator) ValidatePaginationRequest(req *PaginationRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return dv.validator.Validate(req)
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", ve.Field, ve.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, tag, value, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Tag:     tag,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}

	return strings.Join(messages, "; ")
}

// ToValidationErrorResponse converts validation errors to response
func (ve ValidationErrors) ToValidationErrorResponse() *ValidationErrorResponse {
	fields := make([]ValidationFieldError, len(ve))
	for i, err := range ve {
		fields[i] = ValidationFieldError(err)
	}

	return NewValidationErrorResponse(fields)
}

// ProxyURLValidator validates proxy URLs assigned to a BotInstance
type ProxyURLValidator struct{}

// NewProxyURLValidator creates a new proxy URL validator
func NewProxyURLValidator() *ProxyURLValidator {
	return &ProxyURLValidator{}
}

// Validate validates a proxy URL
func (puv *ProxyURLValidator) Validate(proxyURL string) error {
	if proxyURL == "" {
		return nil // Empty URL is valid (no proxy)
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL format: %w", err)
	}

	switch parsedURL.Scheme {
	case "http", "https", "socks4", "socks5":
		// Valid schemes
	default:
		return fmt.Errorf("unsupported proxy scheme: %s (supported: http, https, socks4, socks5)", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("proxy URL must include host")
	}

	return nil
}

// SessionNameValidator validates bot names using the session_name tag's rules,
// kept for call sites that need a standalone check outside struct validation.
type SessionNameValidator struct{}

// NewSessionNameValidator creates a new name validator
func NewSessionNameValidator() *SessionNameValidator {
	return &SessionNameValidator{}
}

// Validate validates a bot name
func (snv *SessionNameValidator) Validate(name string) error {
	if name == "" {
		return NewValidationError("name", "required", "", "Name is required")
	}

	if len(name) < 3 {
		return NewValidationError("name", "min_length", name, "Name must be at least 3 characters long")
	}

	if len(name) > 50 {
		return NewValidationError("name", "max_length", name, "Name must be at most 50 characters long")
	}

	for _, char := range name {
		if !isValidSessionNameChar(char) {
			return NewValidationError("name", "invalid_characters", name, "Name can only contain letters, numbers, spaces, hyphens, and underscores")
		}
	}

	return nil
}

// isValidSessionNameChar checks if a character is valid for bot names
func isValidSessionNameChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == ' ' ||
		char == '-' ||
		char == '_'
}
