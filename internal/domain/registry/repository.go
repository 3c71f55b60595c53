package registry

import "context"

// ServerRepository persists the fleet's tenancy catalog.
type ServerRepository interface {
	Create(ctx context.Context, s *Server) error
	GetByName(ctx context.Context, name string) (*Server, error)
	List(ctx context.Context) ([]*Server, error)
	Update(ctx context.Context, s *Server) error
	UpdateActiveCount(ctx context.Context, name string, delta int) error
	SetHealthy(ctx context.Context, name string, healthy bool) error
}

// ActivityRepository persists the audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListByBot(ctx context.Context, tenancy, botID string, limit, offset int) ([]*Activity, int, error)
	// DeleteByBot removes every activity row linked to a bot. Used by the
	// bot deletion cascade.
	DeleteByBot(ctx context.Context, tenancy, botID string) error
	// CreateCrossTenancy writes an activity row onto an arbitrary tenancy.
	// RPC-layer only.
	CreateCrossTenancy(ctx context.Context, tenancy string, a *Activity) error
}

// CommandRepository persists per-tenancy declarative command rows.
type CommandRepository interface {
	Create(ctx context.Context, c *Command) error
	GetByTrigger(ctx context.Context, tenancy, trigger string) (*Command, error)
	List(ctx context.Context, tenancy string) ([]*Command, error)
	Update(ctx context.Context, c *Command) error
	Delete(ctx context.Context, tenancy, id string) error
}

// GlobalRegistrationRepository persists the God Registry's phone -> tenancy map.
type GlobalRegistrationRepository interface {
	Create(ctx context.Context, g *GlobalRegistration) error
	FindByPhone(ctx context.Context, phone string) (*GlobalRegistration, error)
	Update(ctx context.Context, g *GlobalRegistration) error
	Delete(ctx context.Context, phone string) error
}

// OfferRepository persists per-tenancy promotional offer policy.
type OfferRepository interface {
	Get(ctx context.Context, tenancy string) (*OfferConfig, error)
	Upsert(ctx context.Context, o *OfferConfig) error
}
