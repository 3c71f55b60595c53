// Package guest implements the three Guest Auth Core entry paths (§4.7):
// session-ID proof, OTP over WhatsApp, and authenticated credential
// rotation, each ending in a short-lived guest token bound to
// (phoneNumber, optional botId).
package guest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/credential"
	"botfleet/internal/domain/guest"
	"botfleet/internal/domain/registry"
	infracred "botfleet/internal/infra/credential"
	"botfleet/internal/infra/guestauth"
	"botfleet/internal/infra/guestsession"
	"botfleet/internal/infra/worker"
	"botfleet/pkg/logger"
)

// UseCase implements all three guest authentication paths against this
// tenancy's own repositories. When Path A's bot is owned elsewhere, its row
// is read and written directly through the cross-tenancy repository
// methods; no RPC call is made.
type UseCase struct {
	bots          bot.Repository
	registrations registry.GlobalRegistrationRepository
	sessions      *guestsession.Store
	tokens        *guestauth.Issuer
	vault         *infracred.Vault
	supervisor    *worker.Supervisor
	thisTenancy   bot.TenancyName
	logger        logger.Logger
}

func NewUseCase(
	bots bot.Repository,
	registrations registry.GlobalRegistrationRepository,
	sessions *guestsession.Store,
	tokens *guestauth.Issuer,
	vault *infracred.Vault,
	supervisor *worker.Supervisor,
	thisTenancy bot.TenancyName,
	log logger.Logger,
) *UseCase {
	return &UseCase{
		bots: bots, registrations: registrations, sessions: sessions, tokens: tokens,
		vault: vault, supervisor: supervisor, thisTenancy: thisTenancy, logger: log,
	}
}

// SessionIDProof is Path A: the guest submits a base64-encoded credentials
// blob, the Vault validates it, and the phone it names must already have a
// global registration.
func (uc *UseCase) SessionIDProof(ctx context.Context, raw []byte) (token string, err error) {
	parsed, err := credential.Validate(raw, "")
	if err != nil {
		return "", err
	}

	reg, err := uc.registrations.FindByPhone(ctx, parsed.Phone)
	if err != nil {
		return "", registry.ErrGlobalRegistrationMissing
	}

	tenancy, err := bot.NewTenancyName(reg.Tenancy)
	if err != nil {
		return "", err
	}
	phone, err := bot.NewPhoneNumber(parsed.Phone)
	if err != nil {
		return "", err
	}

	if reg.Tenancy != uc.thisTenancy.String() {
		// Remote-owned bot: a connection test runs locally with the new
		// credentials before they are written to the owning tenancy's row.
		if testErr := uc.connectionTest(ctx, parsed.Raw); testErr != nil {
			return "", guest.ErrConnectionTestFailed
		}
	}

	b, err := uc.bots.GetBotOnServerByPhone(ctx, tenancy, phone)
	if err != nil {
		return "", fmt.Errorf("failed to load bot for session-id proof: %w", err)
	}

	b.VerifyCredentials(parsed.Raw)
	if err := uc.bots.UpdateBotOnServer(ctx, tenancy, b); err != nil {
		b.InvalidateCredentials(err.Error())
		_ = uc.bots.UpdateBotOnServer(ctx, tenancy, b)
		return "", fmt.Errorf("failed to persist verified credentials: %w", err)
	}

	if sendErr := uc.supervisor.SendMessageThroughBot(ctx, b.ID().String(), b.PhoneNumber().String(), "Session linked successfully."); sendErr != nil {
		uc.logger.WarnWithFields("session-id proof success notification failed", logger.Fields{"bot_id": b.ID().String(), "error": sendErr.Error()})
	}

	return uc.tokens.Issue(parsed.Phone, b.ID().String())
}

// connectionTest is a placeholder handshake hook: a full implementation
// would spin up a short-lived Worker against parsed.Raw and tear it down.
func (uc *UseCase) connectionTest(ctx context.Context, raw []byte) error {
	_, err := credential.Validate(raw, "")
	return err
}

// RequestOTP is Path B, first call: verify eligibility, mint a 6-digit
// code, store it with a 10-minute TTL, and send it through the bot's own
// stored credentials.
func (uc *UseCase) RequestOTP(ctx context.Context, phone string) error {
	phoneVO, err := bot.NewPhoneNumber(phone)
	if err != nil {
		return err
	}

	b, err := uc.bots.GetByPhone(ctx, uc.thisTenancy, phoneVO)
	if err != nil {
		return fmt.Errorf("bot not found locally: %w", err)
	}
	if !b.IsApproved() || b.IsExpired(time.Now()) || !b.CredentialVerified() {
		return guest.ErrBotNotEligible
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	uc.sessions.Put(&guest.Session{
		PhoneNumber:  phone,
		OTP:          code,
		OTPExpiresAt: time.Now().Add(guest.OTPTTL),
		BotID:        b.ID().String(),
		CreatedAt:    time.Now(),
	})

	message := fmt.Sprintf("Your verification code is %s", code)
	return uc.supervisor.SendMessageThroughBot(ctx, b.ID().String(), phone, message)
}

// VerifyOTP is Path B, second call: exchange (phone, otp) for a token.
func (uc *UseCase) VerifyOTP(ctx context.Context, phone, otp string) (string, error) {
	sess, ok := uc.sessions.Get(phone)
	if !ok {
		return "", guest.ErrNoPendingSession
	}
	if sess.IsOTPExpired(time.Now()) {
		uc.sessions.Delete(phone)
		return "", guest.ErrOTPExpired
	}
	if sess.OTP != otp {
		return "", guest.ErrOTPMismatch
	}
	uc.sessions.Delete(phone)
	return uc.tokens.Issue(phone, sess.BotID)
}

// RotateCredentials is Path C: an already-authenticated guest uploads new
// credentials; the Vault validates ownership and the Supervisor restarts
// the bot.
func (uc *UseCase) RotateCredentials(ctx context.Context, claims *guest.Claims, raw []byte) error {
	id, err := bot.BotIDFromString(claims.BotID)
	if err != nil {
		return err
	}

	parsed, err := uc.vault.Store(id, raw, claims.PhoneNumber)
	if err != nil {
		return err
	}

	b, err := uc.bots.GetByID(ctx, uc.thisTenancy, id)
	if err != nil {
		return fmt.Errorf("failed to load bot for rotation: %w", err)
	}
	b.VerifyCredentials(parsed.Raw)
	if err := uc.bots.Update(ctx, uc.thisTenancy, b); err != nil {
		return fmt.Errorf("failed to persist rotated credentials: %w", err)
	}

	return uc.supervisor.RestartBot(ctx, uc.thisTenancy, id)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
