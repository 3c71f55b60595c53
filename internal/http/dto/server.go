package dto

import (
	"time"

	"botfleet/internal/domain/registry"
)

// RegisterServerRequest is the admin HTTP payload to add a tenancy to the catalog.
type RegisterServerRequest struct {
	Name         string `json:"name" validate:"required,tenancy_name"`
	BaseURL      string `json:"baseUrl" validate:"required,url"`
	SharedSecret string `json:"sharedSecret" validate:"required,min=16"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
}

// ServerResponse is the admin-facing view of a catalog row. SharedSecret is
// deliberately never echoed back.
type ServerResponse struct {
	Name        string    `json:"name"`
	BaseURL     string    `json:"baseUrl"`
	Capacity    int       `json:"capacity"`
	ActiveCount int       `json:"activeCount"`
	FreeSlots   int       `json:"freeSlots"`
	Healthy     bool      `json:"healthy"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToServerResponse converts a domain Server into its HTTP representation.
func ToServerResponse(s *registry.Server) *ServerResponse {
	return &ServerResponse{
		Name:        s.Name,
		BaseURL:     s.BaseURL,
		Capacity:    s.Capacity,
		ActiveCount: s.ActiveCount,
		FreeSlots:   s.FreeSlots(),
		Healthy:     s.Healthy,
		LastSeenAt:  s.LastSeenAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToServerResponseList converts a slice of domain Servers.
func ToServerResponseList(servers []*registry.Server) []*ServerResponse {
	out := make([]*ServerResponse, 0, len(servers))
	for _, s := range servers {
		out = append(out, ToServerResponse(s))
	}
	return out
}

// CommandRequest is the admin HTTP payload to declare a bot command.
type CommandRequest struct {
	Trigger     string `json:"trigger" validate:"required,min=1,max=64"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Enabled     bool   `json:"enabled"`
}

// CommandResponse is the HTTP representation of a declarative Command row.
type CommandResponse struct {
	ID          string    `json:"id"`
	Tenancy     string    `json:"tenancy"`
	Trigger     string    `json:"trigger"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToCommandResponse converts a domain Command into its HTTP representation.
func ToCommandResponse(c *registry.Command) *CommandResponse {
	return &CommandResponse{
		ID:          c.ID,
		Tenancy:     c.Tenancy,
		Trigger:     c.Trigger,
		Description: c.Description,
		Enabled:     c.Enabled,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToCommandResponseList converts a slice of domain Commands.
func ToCommandResponseList(commands []*registry.Command) []*CommandResponse {
	out := make([]*CommandResponse, 0, len(commands))
	for _, c := range commands {
		out = append(out, ToCommandResponse(c))
	}
	return out
}
