package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
)

// BotInstanceModel is the bun row for a BotInstance, scoped by ServerName.
type BotInstanceModel struct {
	bun.BaseModel `bun:"table:bot_instances"`

	ID                 string    `bun:"id,pk,type:varchar(36)" json:"id"`
	ServerName         string    `bun:"server_name,notnull,type:varchar(64)" json:"server_name"`
	Name               string    `bun:"name,notnull,type:varchar(80)" json:"name"`
	PhoneNumber        string    `bun:"phone_number,notnull,type:varchar(20)" json:"phone_number"`
	Status             string    `bun:"status,notnull,type:varchar(20),default:'offline'" json:"status"`
	ApprovalStatus     string    `bun:"approval_status,notnull,type:varchar(20),default:'pending'" json:"approval_status"`
	Credentials        []byte    `bun:"credentials,type:blob" json:"-"`
	ProxyURL           string    `bun:"proxy_url,type:varchar(255)" json:"proxy_url,omitempty"`
	FlagsJSON          []byte    `bun:"flags,type:text" json:"-"`
	TypingMode         string    `bun:"typing_mode,type:varchar(20)" json:"typing_mode,omitempty"`
	PresenceMode       string    `bun:"presence_mode,type:varchar(20)" json:"presence_mode,omitempty"`
	CredentialVerified bool      `bun:"credential_verified,notnull,default:false" json:"credential_verified"`
	InvalidReason      string    `bun:"invalid_reason,type:text" json:"invalid_reason,omitempty"`
	AutoStart          bool      `bun:"auto_start,notnull,default:true" json:"auto_start"`
	IsGuest            bool      `bun:"is_guest,notnull,default:false" json:"is_guest"`
	MessagesCount      int64     `bun:"messages_count,notnull,default:0" json:"messages_count"`
	CommandsCount      int64     `bun:"commands_count,notnull,default:0" json:"commands_count"`
	ExpirationMonths   int       `bun:"expiration_months,notnull,default:0" json:"expiration_months"`
	ApprovalDate       *time.Time `bun:"approval_date,type:datetime" json:"approval_date,omitempty"`
	LastActivity       *time.Time `bun:"last_activity,type:datetime" json:"last_activity,omitempty"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

// ToBotInstanceModel converts a domain BotInstance into its persisted row.
func ToBotInstanceModel(b *bot.BotInstance) *BotInstanceModel {
	flags, _ := json.Marshal(b.Flags())
	return &BotInstanceModel{
		ID:                 b.ID().String(),
		ServerName:         b.Tenancy().String(),
		Name:               b.Name(),
		PhoneNumber:        b.PhoneNumber().String(),
		Status:             b.Status().String(),
		ApprovalStatus:     string(b.ApprovalStatus()),
		Credentials:        b.Credentials(),
		ProxyURL:           b.ProxyURL().String(),
		FlagsJSON:          flags,
		TypingMode:         b.TypingMode(),
		PresenceMode:       b.PresenceMode(),
		CredentialVerified: b.CredentialVerified(),
		InvalidReason:      b.InvalidReason(),
		AutoStart:          b.AutoStart(),
		IsGuest:            b.IsGuest(),
		MessagesCount:      b.MessagesCount(),
		CommandsCount:      b.CommandsCount(),
		ExpirationMonths:   b.ExpirationMonths(),
		ApprovalDate:       b.ApprovalDate(),
		LastActivity:       b.LastActivity(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}

// FromBotInstanceModel rebuilds a domain BotInstance from its persisted row.
func FromBotInstanceModel(m *BotInstanceModel) (*bot.BotInstance, error) {
	id, err := bot.BotIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	tenancy, err := bot.NewTenancyName(m.ServerName)
	if err != nil {
		return nil, err
	}
	phone, err := bot.NewPhoneNumber(m.PhoneNumber)
	if err != nil {
		return nil, err
	}
	status, err := bot.StatusFromString(m.Status)
	if err != nil {
		return nil, err
	}
	proxyURL, _ := bot.NewProxyURL(m.ProxyURL)

	var flags bot.Flags
	if len(m.FlagsJSON) > 0 {
		_ = json.Unmarshal(m.FlagsJSON, &flags)
	}

	return bot.RestoreBotInstance(
		id, tenancy, m.Name, phone, status, bot.ApprovalStatus(m.ApprovalStatus),
		m.Credentials, proxyURL, flags, m.TypingMode, m.PresenceMode,
		m.CredentialVerified, m.InvalidReason, m.AutoStart, m.IsGuest,
		m.MessagesCount, m.CommandsCount, m.ExpirationMonths,
		m.ApprovalDate, m.LastActivity, m.CreatedAt, m.UpdatedAt,
	), nil
}

// ServerModel is the bun row for the tenancy catalog.
type ServerModel struct {
	bun.BaseModel `bun:"table:servers"`

	Name         string    `bun:"name,pk,type:varchar(64)" json:"name"`
	BaseURL      string    `bun:"base_url,type:varchar(255)" json:"base_url,omitempty"`
	SharedSecret string    `bun:"shared_secret,type:varchar(255)" json:"-"`
	Capacity     int       `bun:"capacity,notnull,default:10" json:"capacity"`
	ActiveCount  int       `bun:"active_count,notnull,default:0" json:"active_count"`
	Healthy      bool      `bun:"healthy,notnull,default:true" json:"healthy"`
	LastSeenAt   time.Time `bun:"last_seen_at,type:datetime" json:"last_seen_at,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

func ToServerModel(s *registry.Server) *ServerModel {
	return &ServerModel{
		Name: s.Name, BaseURL: s.BaseURL, SharedSecret: s.SharedSecret,
		Capacity: s.Capacity, ActiveCount: s.ActiveCount, Healthy: s.Healthy,
		LastSeenAt: s.LastSeenAt, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func FromServerModel(m *ServerModel) *registry.Server {
	return &registry.Server{
		Name: m.Name, BaseURL: m.BaseURL, SharedSecret: m.SharedSecret,
		Capacity: m.Capacity, ActiveCount: m.ActiveCount, Healthy: m.Healthy,
		LastSeenAt: m.LastSeenAt, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

// ActivityModel is the bun row for the append-only audit log.
type ActivityModel struct {
	bun.BaseModel `bun:"table:activities"`

	ID        string    `bun:"id,pk,type:varchar(36)" json:"id"`
	Tenancy   string    `bun:"tenancy,notnull,type:varchar(64)" json:"tenancy"`
	BotID     string    `bun:"bot_id,type:varchar(36)" json:"bot_id,omitempty"`
	Kind      string    `bun:"kind,notnull,type:varchar(40)" json:"kind"`
	Detail    string    `bun:"detail,type:text" json:"detail,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
}

func ToActivityModel(a *registry.Activity) *ActivityModel {
	return &ActivityModel{ID: a.ID, Tenancy: a.Tenancy, BotID: a.BotID, Kind: a.Kind, Detail: a.Detail, CreatedAt: a.CreatedAt}
}

func FromActivityModel(m *ActivityModel) *registry.Activity {
	return &registry.Activity{ID: m.ID, Tenancy: m.Tenancy, BotID: m.BotID, Kind: m.Kind, Detail: m.Detail, CreatedAt: m.CreatedAt}
}

// CommandModel is the bun row for a per-tenancy declarative command.
type CommandModel struct {
	bun.BaseModel `bun:"table:commands"`

	ID          string    `bun:"id,pk,type:varchar(36)" json:"id"`
	Tenancy     string    `bun:"tenancy,notnull,type:varchar(64)" json:"tenancy"`
	Trigger     string    `bun:"trigger,notnull,type:varchar(80)" json:"trigger"`
	Description string    `bun:"description,type:text" json:"description,omitempty"`
	Enabled     bool      `bun:"enabled,notnull,default:true" json:"enabled"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

func ToCommandModel(c *registry.Command) *CommandModel {
	return &CommandModel{
		ID: c.ID, Tenancy: c.Tenancy, Trigger: c.Trigger, Description: c.Description,
		Enabled: c.Enabled, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func FromCommandModel(m *CommandModel) *registry.Command {
	return &registry.Command{
		ID: m.ID, Tenancy: m.Tenancy, Trigger: m.Trigger, Description: m.Description,
		Enabled: m.Enabled, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

// GlobalRegistrationModel is the bun row for the God Registry.
type GlobalRegistrationModel struct {
	bun.BaseModel `bun:"table:global_registrations"`

	PhoneNumber string    `bun:"phone_number,pk,type:varchar(20)" json:"phone_number"`
	Tenancy     string    `bun:"tenancy,notnull,type:varchar(64)" json:"tenancy"`
	BotID       string    `bun:"bot_id,notnull,type:varchar(36)" json:"bot_id"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

func ToGlobalRegistrationModel(g *registry.GlobalRegistration) *GlobalRegistrationModel {
	return &GlobalRegistrationModel{
		PhoneNumber: g.PhoneNumber, Tenancy: g.Tenancy, BotID: g.BotID,
		CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
}

func FromGlobalRegistrationModel(m *GlobalRegistrationModel) *registry.GlobalRegistration {
	return &registry.GlobalRegistration{
		PhoneNumber: m.PhoneNumber, Tenancy: m.Tenancy, BotID: m.BotID,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

// OfferConfigModel is the bun row for a tenancy's promotional offer policy.
type OfferConfigModel struct {
	bun.BaseModel `bun:"table:offer_configs"`

	Tenancy             string    `bun:"tenancy,pk,type:varchar(64)" json:"tenancy"`
	AutoApproveEnabled  bool      `bun:"auto_approve_enabled,notnull,default:false" json:"auto_approve_enabled"`
	DefaultExpirationMo int       `bun:"default_expiration_months,notnull,default:12" json:"default_expiration_months"`
	MaxFreeBots         int       `bun:"max_free_bots,notnull,default:0" json:"max_free_bots"`
	UpdatedAt           time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

func ToOfferConfigModel(o *registry.OfferConfig) *OfferConfigModel {
	return &OfferConfigModel{
		Tenancy: o.Tenancy, AutoApproveEnabled: o.AutoApproveEnabled,
		DefaultExpirationMo: o.DefaultExpirationMo, MaxFreeBots: o.MaxFreeBots, UpdatedAt: o.UpdatedAt,
	}
}

func FromOfferConfigModel(m *OfferConfigModel) *registry.OfferConfig {
	return &registry.OfferConfig{
		Tenancy: m.Tenancy, AutoApproveEnabled: m.AutoApproveEnabled,
		DefaultExpirationMo: m.DefaultExpirationMo, MaxFreeBots: m.MaxFreeBots, UpdatedAt: m.UpdatedAt,
	}
}
