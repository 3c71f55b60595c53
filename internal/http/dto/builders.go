package dto

import (
	"time"
)

// BotResponseBuilder provides a fluent interface for building BotResponse
type BotResponseBuilder struct {
	response *BotResponse
}

// NewBotResponseBuilder creates a new BotResponseBuilder
func NewBotResponseBuilder() *BotResponseBuilder {
	return &BotResponseBuilder{
		response: &BotResponse{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
}

// WithID sets the bot ID
func (b *BotResponseBuilder) WithID(id string) *BotResponseBuilder {
	b.response.ID = id
	return b
}

// WithTenancy sets the owning tenancy
func (b *BotResponseBuilder) WithTenancy(tenancy string) *BotResponseBuilder {
	b.response.Tenancy = tenancy
	return b
}

// WithName sets the bot name
func (b *BotResponseBuilder) WithName(name string) *BotResponseBuilder {
	b.response.Name = name
	return b
}

// WithStatus sets the connection status
func (b *BotResponseBuilder) WithStatus(status string) *BotResponseBuilder {
	b.response.Status = status
	return b
}

// WithApprovalStatus sets the approval status
func (b *BotResponseBuilder) WithApprovalStatus(status string) *BotResponseBuilder {
	b.response.ApprovalStatus = status
	return b
}

// WithProxyURL sets the proxy URL
func (b *BotResponseBuilder) WithProxyURL(proxyURL string) *BotResponseBuilder {
	b.response.ProxyURL = proxyURL
	return b
}

// WithTimestamps sets creation and update timestamps
func (b *BotResponseBuilder) WithTimestamps(createdAt, updatedAt time.Time) *BotResponseBuilder {
	b.response.CreatedAt = createdAt
	b.response.UpdatedAt = updatedAt
	return b
}

// Build returns the built BotResponse
func (b *BotResponseBuilder) Build() *BotResponse {
	return b.response
}

// ErrorResponseBuilder provides a fluent interface for building ErrorResponse
type ErrorResponseBuilder struct {
	response *ErrorResponse
}

// NewErrorResponseBuilder creates a new ErrorResponseBuilder
func NewErrorResponseBuilder() *ErrorResponseBuilder {
	return &ErrorResponseBuilder{
		response: &ErrorResponse{
			Success:   false,
			Status:    StatusError.String(),
			Context:   make(map[string]interface{}),
			Timestamp: time.Now(),
		},
	}
}

// WithError sets the error message
func (b *ErrorResponseBuilder) WithError(error string) *ErrorResponseBuilder {
	b.response.Error = error
	return b
}

// WithCode sets the error code
func (b *ErrorResponseBuilder) WithCode(code string) *ErrorResponseBuilder {
	b.response.Code = code
	return b
}

// WithDetails sets the error details
func (b *ErrorResponseBuilder) WithDetails(details string) *ErrorResponseBuilder {
	b.response.Details = details
	return b
}

// WithContext sets the error context
func (b *ErrorResponseBuilder) WithContext(context map[string]interface{}) *ErrorResponseBuilder {
	b.response.Context = context
	return b
}

// AddContext adds a key-value pair to the error context
func (b *ErrorResponseBuilder) AddContext(key string, value interface{}) *ErrorResponseBuilder {
	if b.response.Context == nil {
		b.response.Context = make(map[string]interface{})
	}
	b.response.Context[key] = value
	return b
}

// WithTimestamp sets the error timestamp
func (b *ErrorResponseBuilder) WithTimestamp(timestamp time.Time) *ErrorResponseBuilder {
	b.response.Timestamp = timestamp
	return b
}

// Build returns the built ErrorResponse
func (b *ErrorResponseBuilder) Build() *ErrorResponse {
	return b.response
}

// ValidationErrorResponseBuilder provides a fluent interface for building ValidationErrorResponse
type ValidationErrorResponseBuilder struct {
	response *ValidationErrorResponse
}

// NewValidationErrorResponseBuilder creates a new ValidationErrorResponseBuilder
func NewValidationErrorResponseBuilder() *ValidationErrorResponseBuilder {
	return &ValidationErrorResponseBuilder{
		response: &ValidationErrorResponse{
			Success: false,
			Error:   "Validation failed",
			Code:    "VALIDATION_ERROR",
			Fields:  make([]ValidationFieldError, 0),
		},
	}
}

// WithError sets the error message
func (b *ValidationErrorResponseBuilder) WithError(error string) *ValidationErrorResponseBuilder {
	b.response.Error = error
	return b
}

// WithCode sets the error code
func (b *ValidationErrorResponseBuilder) WithCode(code string) *ValidationErrorResponseBuilder {
	b.response.Code = code
	return b
}

// AddField adds a validation field error
func (b *ValidationErrorResponseBuilder) AddField(field, tag, value, message string) *ValidationErrorResponseBuilder {
	b.response.Fields = append(b.response.Fields, ValidationFieldError{
		Field:   field,
		Tag:     tag,
		Value:   value,
		Message: message,
	})
	return b
}

// WithFields sets all validation field errors
func (b *ValidationErrorResponseBuilder) WithFields(fields []ValidationFieldError) *ValidationErrorResponseBuilder {
	b.response.Fields = fields
	return b
}

// Build returns the built ValidationErrorResponse
func (b *ValidationErrorResponseBuilder) Build() *ValidationErrorResponse {
	return b.response
}

// MetricsResponseBuilder provides a fluent interface for building MetricsResponse
type MetricsResponseBuilder struct {
	response *MetricsResponse
}

// NewMetricsResponseBuilder creates a new MetricsResponseBuilder
func NewMetricsResponseBuilder() *MetricsResponseBuilder {
	return &MetricsResponseBuilder{
		response: &MetricsResponse{
			Timestamp: time.Now(),
		},
	}
}

// WithBotMetrics sets the bot-lifecycle metrics
func (b *MetricsResponseBuilder) WithBotMetrics(metrics BotMetrics) *MetricsResponseBuilder {
	b.response.Bots = metrics
	return b
}

// WithWorkerMetrics sets the Session Worker metrics
func (b *MetricsResponseBuilder) WithWorkerMetrics(metrics WorkerMetrics) *MetricsResponseBuilder {
	b.response.Workers = metrics
	return b
}

// WithSystemMetrics sets the system metrics
func (b *MetricsResponseBuilder) WithSystemMetrics(metrics SystemMetrics) *MetricsResponseBuilder {
	b.response.System = metrics
	return b
}

// WithTimestamp sets the metrics timestamp
func (b *MetricsResponseBuilder) WithTimestamp(timestamp time.Time) *MetricsResponseBuilder {
	b.response.Timestamp = timestamp
	return b
}

// Build returns the built MetricsResponse
func (b *MetricsResponseBuilder) Build() *MetricsResponse {
	return b.response
}
