package registry

import (
	"time"

	"github.com/google/uuid"
)

// Server is a catalog row for one tenancy in the fleet: its base URL, its
// capacity, and the shared secret used to verify cross-tenancy RPC calls
// originating from it.
type Server struct {
	Name         string
	BaseURL      string
	SharedSecret string
	Capacity     int
	ActiveCount  int
	Healthy      bool
	LastSeenAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCapacity reports whether this tenancy can accept one more bot.
func (s *Server) HasCapacity() bool {
	return s.ActiveCount < s.Capacity
}

// FreeSlots returns the number of additional bots this tenancy can host.
func (s *Server) FreeSlots() int {
	free := s.Capacity - s.ActiveCount
	if free < 0 {
		return 0
	}
	return free
}

// Activity is an audit-log row for a lifecycle or RPC event on a bot.
type Activity struct {
	ID        string
	Tenancy   string
	BotID     string
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// NewActivity mints a new Activity row.
func NewActivity(tenancy, botID, kind, detail string) *Activity {
	return &Activity{
		ID:        uuid.New().String(),
		Tenancy:   tenancy,
		BotID:     botID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

// Command is a per-tenancy, declaratively defined bot command entry.
// The legacy dynamic-code execution path is explicitly dropped; commands
// here are data rows consulted by a fixed dispatcher, never executed as
// arbitrary code.
type Command struct {
	ID          string
	Tenancy     string
	Trigger     string
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCommand mints a new declarative Command row.
func NewCommand(tenancy, trigger, description string) *Command {
	now := time.Now()
	return &Command{
		ID:          uuid.New().String(),
		Tenancy:     tenancy,
		Trigger:     trigger,
		Description: description,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GlobalRegistration is the "God Registry" row mapping one phone number to
// exactly one canonical tenancy, fleet-wide.
type GlobalRegistration struct {
	PhoneNumber string
	Tenancy     string
	BotID       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewGlobalRegistration mints a new phone-to-tenancy mapping.
func NewGlobalRegistration(phone, tenancy, botID string) *GlobalRegistration {
	now := time.Now()
	return &GlobalRegistration{
		PhoneNumber: phone,
		Tenancy:     tenancy,
		BotID:       botID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OfferConfig is a per-tenancy promotional-offer policy consulted by the
// lifecycle orchestrator's auto-approval path.
type OfferConfig struct {
	Tenancy             string
	AutoApproveEnabled  bool
	DefaultExpirationMo int
	MaxFreeBots         int
	UpdatedAt           time.Time
}

// DefaultOfferConfig returns the fallback policy for a tenancy with no
// explicit configuration row.
func DefaultOfferConfig(tenancy string) *OfferConfig {
	return &OfferConfig{
		Tenancy:             tenancy,
		AutoApproveEnabled:  false,
		DefaultExpirationMo: 12,
		MaxFreeBots:         0,
		UpdatedAt:           time.Now(),
	}
}
