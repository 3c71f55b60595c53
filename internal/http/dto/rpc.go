package dto

import (
	"time"

	domainrpc "botfleet/internal/domain/rpc"
)

// RPCCreateRequest is the HTTP payload for the cross-tenancy create operation.
type RPCCreateRequest struct {
	BotData     map[string]interface{} `json:"botData" validate:"required"`
	PhoneNumber string                  `json:"phoneNumber" validate:"required,phone_number"`
}

// RPCUpdateRequest is the HTTP payload for the cross-tenancy update operation.
type RPCUpdateRequest struct {
	BotID   string                 `json:"botId" validate:"required,uuid"`
	Updates map[string]interface{} `json:"updates" validate:"required"`
}

// RPCCredentialsRequest is the HTTP payload for the cross-tenancy credentials operation.
type RPCCredentialsRequest struct {
	BotID       string `json:"botId" validate:"required,uuid"`
	Credentials string `json:"credentials" validate:"required"`
}

// RPCLifecycleRequest is the HTTP payload for the cross-tenancy lifecycle operation.
type RPCLifecycleRequest struct {
	BotID  string `json:"botId" validate:"required,uuid"`
	Action string `json:"action" validate:"required,oneof=start stop restart"`
}

// RPCStatusRequest is the HTTP payload for the cross-tenancy status operation.
type RPCStatusRequest struct {
	BotID string `json:"botId" validate:"required,uuid"`
}

// RPCEnvelopeResponse mirrors domain/rpc.Envelope for the HTTP boundary.
type RPCEnvelopeResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ToRPCEnvelopeResponse converts a domain RPC envelope to its HTTP shape.
func ToRPCEnvelopeResponse(e *domainrpc.Envelope) *RPCEnvelopeResponse {
	return &RPCEnvelopeResponse{
		Success: e.Success,
		Data:    e.Data,
		Message: e.Message,
		Error:   e.Error,
	}
}

// RPCActivityResponse is the HTTP representation of a cross-tenancy audit row.
type RPCActivityResponse struct {
	ID        string    `json:"id"`
	Tenancy   string    `json:"tenancy"`
	BotID     string    `json:"botId"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}
