package bot

import "context"

// Repository persists BotInstance rows scoped to the calling tenancy.
// Every method here operates within the caller's own tenancy; methods that
// reach across tenancies are named explicitly and live at the bottom of
// this interface so a reviewer can spot cross-tenancy writes at a glance.
type Repository interface {
	Create(ctx context.Context, tenancy TenancyName, b *BotInstance) error
	GetByID(ctx context.Context, tenancy TenancyName, id BotID) (*BotInstance, error)
	GetByName(ctx context.Context, tenancy TenancyName, name string) (*BotInstance, error)
	GetByPhone(ctx context.Context, tenancy TenancyName, phone PhoneNumber) (*BotInstance, error)
	List(ctx context.Context, tenancy TenancyName, limit, offset int) ([]*BotInstance, int, error)
	ListByApprovalStatus(ctx context.Context, tenancy TenancyName, status ApprovalStatus, limit, offset int) ([]*BotInstance, int, error)
	Update(ctx context.Context, tenancy TenancyName, b *BotInstance) error
	Delete(ctx context.Context, tenancy TenancyName, id BotID) error
	UpdateStatus(ctx context.Context, tenancy TenancyName, id BotID, status Status) error
	CountActive(ctx context.Context, tenancy TenancyName) (int, error)
	CountApproved(ctx context.Context, tenancy TenancyName) (int, error)
	Exists(ctx context.Context, tenancy TenancyName, id BotID) (bool, error)
	ExistsByName(ctx context.Context, tenancy TenancyName, name string) (bool, error)

	// GetBotOnServer reads a bot row from an arbitrary tenancy. RPC-layer only.
	GetBotOnServer(ctx context.Context, tenancy TenancyName, id BotID) (*BotInstance, error)
	// GetBotOnServerByPhone reads a bot by phone from an arbitrary tenancy. RPC-layer only.
	GetBotOnServerByPhone(ctx context.Context, tenancy TenancyName, phone PhoneNumber) (*BotInstance, error)
	// UpdateBotOnServer writes a bot row on an arbitrary tenancy. RPC-layer only.
	UpdateBotOnServer(ctx context.Context, tenancy TenancyName, b *BotInstance) error
	// CreateBotOnServer creates a bot row on an arbitrary tenancy. RPC-layer only.
	CreateBotOnServer(ctx context.Context, tenancy TenancyName, b *BotInstance) error
	// DeleteBotOnServer removes a bot row on an arbitrary tenancy. RPC-layer only.
	DeleteBotOnServer(ctx context.Context, tenancy TenancyName, id BotID) error
}

// ListFilter narrows a List query.
type ListFilter struct {
	Status         *Status
	ApprovalStatus *ApprovalStatus
	Search         string
}

// ListOptions paginates and orders a List query.
type ListOptions struct {
	Limit  int
	Offset int
	Sort   string
	Order  string
}

// RepositoryWithFilters extends Repository with advanced filtering.
type RepositoryWithFilters interface {
	Repository
	ListWithFilter(ctx context.Context, tenancy TenancyName, filter ListFilter, options ListOptions) ([]*BotInstance, int, error)
	CountWithFilter(ctx context.Context, tenancy TenancyName, filter ListFilter) (int, error)
}
