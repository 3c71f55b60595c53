package dto

import (
	"time"

	"botfleet/internal/domain/bot"
)

// RegisterBotRequest is the HTTP payload to register a new bot.
// @Description Dados para registro de um novo bot WhatsApp
type RegisterBotRequest struct {
	Name           string `json:"name" validate:"required,session_name" example:"suporte-01"`
	Phone          string `json:"phone" validate:"required,phone_number" example:"+5511999999999"`
	Credentials    string `json:"credentials,omitempty" description:"Blob de credenciais codificado em base64 (opcional)"`
	SelectedServer string `json:"selectedServer,omitempty" description:"Tenancy alvo explícita (opcional)"`
}

// ApproveBotRequest is the HTTP payload to approve a pending bot.
type ApproveBotRequest struct {
	ExpirationMonths int    `json:"expirationMonths" validate:"required,min=1,max=60" example:"12"`
	TargetTenancy    string `json:"targetTenancy,omitempty" validate:"omitempty,tenancy_name"`
}

// SetProxyRequest mirrors the teacher's session proxy payload, generalized
// onto BotInstance.
type SetProxyRequest struct {
	ProxyURL string `json:"proxyUrl" validate:"required,url"`
}

// BatchOperateRequest is the HTTP payload for the admin batch endpoint.
type BatchOperateRequest struct {
	Operation     string            `json:"operation" validate:"required,oneof=start stop approve revoke delete migrate"`
	Items         []BatchItemDTO    `json:"items" validate:"required,min=1,dive"`
	MigrateTarget string            `json:"migrateTarget,omitempty" validate:"omitempty,tenancy_name"`
}

type BatchItemDTO struct {
	Tenancy string `json:"tenancy" validate:"required,tenancy_name"`
	BotID   string `json:"botId" validate:"required,uuid"`
}

// BatchResultDTO reports one item's outcome.
type BatchResultDTO struct {
	Tenancy string `json:"tenancy"`
	BotID   string `json:"botId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BotResponse is the admin-facing view of a BotInstance.
// @Description Representação de um bot para o painel administrativo
type BotResponse struct {
	ID                 string     `json:"id"`
	Tenancy            string     `json:"tenancy"`
	Name               string     `json:"name"`
	PhoneNumber        string     `json:"phoneNumber"`
	Status             string     `json:"status"`
	ApprovalStatus     string     `json:"approvalStatus"`
	ProxyURL           string     `json:"proxyUrl,omitempty"`
	CredentialVerified bool       `json:"credentialVerified"`
	InvalidReason      string     `json:"invalidReason,omitempty"`
	AutoStart          bool       `json:"autoStart"`
	IsGuest            bool       `json:"isGuest"`
	MessagesCount      int64      `json:"messagesCount"`
	CommandsCount      int64      `json:"commandsCount"`
	ExpirationMonths   int        `json:"expirationMonths,omitempty"`
	ApprovalDate       *time.Time `json:"approvalDate,omitempty"`
	LastActivity       *time.Time `json:"lastActivity,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ToBotResponse converts a domain BotInstance into its HTTP representation.
func ToBotResponse(b *bot.BotInstance) *BotResponse {
	return &BotResponse{
		ID:                 b.ID().String(),
		Tenancy:            b.Tenancy().String(),
		Name:               b.Name(),
		PhoneNumber:        b.PhoneNumber().String(),
		Status:             b.Status().String(),
		ApprovalStatus:     string(b.ApprovalStatus()),
		ProxyURL:           b.ProxyURL().String(),
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

func ToBotResponseList(bots []*bot.BotInstance) []*BotResponse {
	out := make([]*BotResponse, 0, len(bots))
	for _, b := range bots {
		out = append(out, ToBotResponse(b))
	}
	return out
}

// RegisterBotResponse reports placement outcome alongside the bot.
type RegisterBotResponse struct {
	Bot              *BotResponse `json:"bot"`
	CanonicalTenancy string       `json:"canonicalTenancy"`
	CrossServer      bool         `json:"crossServer"`
}
