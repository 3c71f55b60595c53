// Package rpc defines the wire contract for the signed cross-tenancy
// control plane: envelope shape, operations, and typed payloads.
package rpc

// Operation enumerates the cross-tenancy RPC operations.
type Operation string

const (
	OpHealth      Operation = "health"
	OpCreate      Operation = "create"
	OpUpdate      Operation = "update"
	OpCredentials Operation = "credentials"
	OpLifecycle   Operation = "lifecycle"
	OpStatus      Operation = "status"
)

func (o Operation) IsValid() bool {
	switch o {
	case OpHealth, OpCreate, OpUpdate, OpCredentials, OpLifecycle, OpStatus:
		return true
	}
	return false
}

// LifecycleAction enumerates the actions the lifecycle operation accepts.
type LifecycleAction string

const (
	ActionStart   LifecycleAction = "start"
	ActionStop    LifecycleAction = "stop"
	ActionRestart LifecycleAction = "restart"
)

func (a LifecycleAction) IsValid() bool {
	switch a {
	case ActionStart, ActionStop, ActionRestart:
		return true
	}
	return false
}

// Claims is the signed JWT payload exchanged between tenancies.
type Claims struct {
	Issuer    string      `json:"iss"`
	Audience  string      `json:"aud"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
	Data      interface{} `json:"data"`
}

// CreatePayload is the data field for OpCreate.
type CreatePayload struct {
	BotData     map[string]interface{} `json:"botData"`
	PhoneNumber string                  `json:"phoneNumber"`
}

// UpdatePayload is the data field for OpUpdate.
type UpdatePayload struct {
	BotID   string                 `json:"botId"`
	Updates map[string]interface{} `json:"updates"`
}

// CredentialsPayload is the data field for OpCredentials.
type CredentialsPayload struct {
	BotID       string `json:"botId"`
	Credentials string `json:"credentials"`
}

// LifecyclePayload is the data field for OpLifecycle.
type LifecyclePayload struct {
	BotID  string          `json:"botId"`
	Action LifecycleAction `json:"action"`
}

// StatusPayload is the data field for OpStatus.
type StatusPayload struct {
	BotID string `json:"botId"`
}

// Envelope is the standard response shape for every RPC operation.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}
