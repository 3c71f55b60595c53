package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"botfleet/internal/domain/bot"
	"botfleet/internal/http/dto"
	"botfleet/internal/infra/container"
)

// PairingHandler serves the unauthenticated pairing-code flow: once a bot
// is registered but not yet credentialed, its owner pairs it either by
// scanning a QR code or by entering a phone-derived pairing code. This
// handler starts the Worker, relays whatever code it produces, and arms the
// Supervisor's 4-minute pairing watchdog, which stops the Worker of an
// abandoned attempt.
type PairingHandler struct {
	container *container.Container
}

func NewPairingHandler(c *container.Container) *PairingHandler {
	return &PairingHandler{container: c}
}

func (h *PairingHandler) botID(r *http.Request) (bot.BotID, error) {
	return bot.BotIDFromString(chi.URLParam(r, "botId"))
}

// IssueQR handles POST /pairing/{botId}/qr
func (h *PairingHandler) IssueQR(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	b, err := h.container.BotQuery.Get(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if b.HasCredentials() {
		writeJSON(w, http.StatusConflict, dto.NewErrorResponse("bot already paired", "ALREADY_PAIRED", ""))
		return
	}

	if err := h.container.Supervisor.StartBot(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	code, err := h.container.Supervisor.GenerateQR(r.Context(), id.String())
	if err != nil {
		writeError(w, err)
		return
	}
	h.container.Supervisor.ArmPairingWatchdog(id.String(), func() {
		_ = h.container.Supervisor.StopBot(r.Context(), h.container.Tenancy, id, false)
	})
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("qr issued", map[string]string{"qrCode": code}))
}

// IssuePairingCode handles POST /pairing/{botId}/phone
func (h *PairingHandler) IssuePairingCode(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}

	if err := h.container.Supervisor.StartBot(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	code, err := h.container.Supervisor.PairPhone(r.Context(), id.String(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	h.container.Supervisor.ArmPairingWatchdog(id.String(), func() {
		_ = h.container.Supervisor.StopBot(r.Context(), h.container.Tenancy, id, false)
	})
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("pairing code issued", map[string]string{"pairingCode": code}))
}

// Verify handles GET /pairing/{botId}/status: a poll endpoint for the
// caller to learn whether the pairing handshake has completed.
func (h *PairingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	b, err := h.container.BotQuery.Get(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if b.HasCredentials() {
		h.container.Supervisor.ClearPairingWatchdog(id.String())
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", map[string]interface{}{
		"status":             b.Status().String(),
		"credentialVerified": b.CredentialVerified(),
	}))
}
