package bot

import (
	"errors"
	"fmt"
)

// Sentinel errors for bot domain operations.
var (
	ErrBotNotFound          = errors.New("bot not found")
	ErrBotAlreadyExists     = errors.New("bot already exists")
	ErrBotAlreadyConnected  = errors.New("bot already connected")
	ErrBotNotConnected      = errors.New("bot not connected")
	ErrBotInvalidState      = errors.New("bot in invalid state")
	ErrBotExpired           = errors.New("bot approval expired")
	ErrBotNotApproved       = errors.New("bot not approved")

	ErrInvalidBotID         = errors.New("invalid bot ID")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrInvalidTenancyName   = errors.New("invalid tenancy name")
	ErrInvalidProxyURL      = errors.New("invalid proxy URL")
	ErrInvalidStatus        = errors.New("invalid bot status")
	ErrInvalidApprovalState = errors.New("invalid approval state transition")

	ErrPhoneAlreadyRegistered = errors.New("phone number already registered in fleet")
	ErrCapacityExhausted      = errors.New("no tenancy has capacity for a new bot")

	ErrRepositoryConnection = errors.New("repository connection error")
	ErrRepositoryTimeout    = errors.New("repository operation timeout")
	ErrRepositoryConstraint = errors.New("repository constraint violation")

	ErrValidationFailed = errors.New("validation failed")
)

// BotError is a domain error carrying a machine-readable code and context.
type BotError struct {
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error { return e.Cause }

func (e *BotError) WithContext(key string, value interface{}) *BotError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Error codes.
const (
	ErrCodeNotFound          = "BOT_NOT_FOUND"
	ErrCodeAlreadyExists     = "BOT_ALREADY_EXISTS"
	ErrCodeAlreadyConnected  = "BOT_ALREADY_CONNECTED"
	ErrCodeNotConnected      = "BOT_NOT_CONNECTED"
	ErrCodeInvalidState      = "BOT_INVALID_STATE"
	ErrCodeExpired           = "BOT_EXPIRED"
	ErrCodeNotApproved       = "BOT_NOT_APPROVED"
	ErrCodeInvalidID         = "INVALID_BOT_ID"
	ErrCodeInvalidPhone      = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeRepository        = "REPOSITORY_ERROR"
	ErrCodeCapacityExhausted = "CAPACITY_EXHAUSTED"
	ErrCodePhoneRegistered   = "PHONE_ALREADY_REGISTERED"
)

func NewBotError(code, message string) *BotError {
	return &BotError{Code: code, Message: message}
}

func NewBotErrorWithCause(code, message string, cause error) *BotError {
	return &BotError{Code: code, Message: message, Cause: cause}
}

// NewNotFoundError builds a not-found error scoped to a BotID.
func NewNotFoundError(id BotID) *BotError {
	return NewBotError(ErrCodeNotFound, "bot not found").WithContext("bot_id", id.String())
}

// NewPhoneRegisteredError builds a conflict error naming the owning tenancy.
func NewPhoneRegisteredError(phone PhoneNumber, registeredTo string) *BotError {
	return NewBotError(ErrCodePhoneRegistered, "phone number already registered in fleet").
		WithContext("phone_number", phone.String()).
		WithContext("registered_to", registeredTo)
}

// NewCapacityExhaustedError builds a capacity error, optionally carrying alternatives.
func NewCapacityExhaustedError(alternatives []string) *BotError {
	return NewBotError(ErrCodeCapacityExhausted, "no tenancy has capacity for a new bot").
		WithContext("alternatives", alternatives)
}

func NewValidationError(field, message string) *BotError {
	return NewBotError(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, message)).
		WithContext("field", field)
}

func NewRepositoryError(operation string, cause error) *BotError {
	return NewBotErrorWithCause(ErrCodeRepository, fmt.Sprintf("repository operation failed: %s", operation), cause).
		WithContext("operation", operation)
}

func IsNotFoundError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodeNotFound
	}
	return errors.Is(err, ErrBotNotFound)
}

func IsAlreadyExistsError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodeAlreadyExists
	}
	return errors.Is(err, ErrBotAlreadyExists)
}

func IsPhoneRegisteredError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodePhoneRegistered
	}
	return errors.Is(err, ErrPhoneAlreadyRegistered)
}

func IsCapacityExhaustedError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodeCapacityExhausted
	}
	return errors.Is(err, ErrCapacityExhausted)
}

func IsValidationError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodeValidation
	}
	return errors.Is(err, ErrValidationFailed)
}

func IsRepositoryError(err error) bool {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code == ErrCodeRepository
	}
	return errors.Is(err, ErrRepositoryConnection) ||
		errors.Is(err, ErrRepositoryTimeout) ||
		errors.Is(err, ErrRepositoryConstraint)
}
