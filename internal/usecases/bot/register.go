// Package bot hosts the Lifecycle Orchestrator (C8) and the placement-facing
// registration use case (C5 steps 1-3), grounded on the teacher's
// usecases/session.CreateUseCase structure: validate, check conflict,
// construct entity, persist, log.
package bot

import (
	"context"
	"fmt"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	"botfleet/internal/infra/credential"
	registryuc "botfleet/internal/usecases/registry"
	"botfleet/pkg/logger"
	"botfleet/pkg/validator"
)

// RegisterUseCase onboards a new bot: it resolves the canonical tenancy,
// checks capacity, and either registers locally or cross-server through the
// PlacementEngine.
type RegisterUseCase struct {
	bots           bot.Repository
	offers         registry.OfferRepository
	placement      *registryuc.PlacementEngine
	vault          *credential.Vault
	currentTenancy string
	logger         logger.Logger
	validator      validator.Validator
}

func NewRegisterUseCase(
	bots bot.Repository,
	offers registry.OfferRepository,
	placement *registryuc.PlacementEngine,
	vault *credential.Vault,
	currentTenancy string,
	log logger.Logger,
	v validator.Validator,
) *RegisterUseCase {
	return &RegisterUseCase{
		bots: bots, offers: offers, placement: placement, vault: vault,
		currentTenancy: currentTenancy, logger: log, validator: v,
	}
}

// RegisterRequest is a new bot registration, its credentials optional (a
// caller may instead pair by QR/phone after creation).
type RegisterRequest struct {
	Name           string `json:"name" validate:"required,session_name"`
	Phone          string `json:"phone" validate:"required,phone_number"`
	Credentials    []byte `json:"-"`
	SelectedServer string `json:"selectedServer"`
	ExplicitChoice bool   `json:"-"`
	IsGuest        bool   `json:"-"`
}

// RegisterResponse reports where the bot ended up, since placement may move
// it to a different tenancy than the one that received the request.
type RegisterResponse struct {
	Bot              *bot.BotInstance
	CanonicalTenancy string
	CrossServer      bool
}

func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		return nil, err
	}

	phone, err := bot.NewPhoneNumber(req.Phone)
	if err != nil {
		return nil, err
	}

	canonical, err := uc.placement.ResolveCanonicalTenancy(ctx, phone.String(), req.SelectedServer, uc.currentTenancy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve canonical tenancy: %w", err)
	}

	explicit := req.SelectedServer != ""
	placed, err := uc.placement.CheckCapacity(ctx, canonical, explicit)
	if err != nil {
		return nil, err
	}

	tenancy, err := bot.NewTenancyName(placed)
	if err != nil {
		return nil, fmt.Errorf("invalid tenancy: %w", err)
	}

	instance := bot.NewBotInstance(tenancy, req.Name, phone, req.IsGuest)

	if len(req.Credentials) > 0 {
		parsed, err := uc.vault.Store(instance.ID(), req.Credentials, phone.String())
		if err != nil {
			instance.InvalidateCredentials(err.Error())
		} else {
			instance.VerifyCredentials(parsed.Raw)
			if markErr := instance.MarkDormant(); markErr != nil {
				uc.logger.WarnWithFields("failed to mark bot dormant after credential validation", logger.Fields{"bot_id": instance.ID().String()})
			}
		}
	}

	offer, err := uc.offers.Get(ctx, placed)
	if err == nil && req.IsGuest && offer.AutoApproveEnabled {
		if approveErr := instance.Approve(offer.DefaultExpirationMo); approveErr != nil {
			uc.logger.WarnWithFields("offer auto-approval rejected by lifecycle state", logger.Fields{"bot_id": instance.ID().String()})
		}
	}

	if err := instance.Validate(); err != nil {
		return nil, err
	}

	// Every registration, local or cross-tenancy, goes through the placement
	// engine so the BotInstance row, the God Registry entry, and the target
	// tenancy's active count are written together. A bare uc.bots.Create
	// would leave the phone unregistered fleet-wide and the count stale.
	if err := uc.placement.CreateCrossServerRegistration(ctx, placed, instance); err != nil {
		return nil, err
	}

	uc.logger.InfoWithFields("bot registered", logger.Fields{
		"bot_id": instance.ID().String(), "tenancy": placed, "cross_server": placed != uc.currentTenancy,
	})

	return &RegisterResponse{
		Bot:              instance,
		CanonicalTenancy: placed,
		CrossServer:      placed != uc.currentTenancy,
	}, nil
}
