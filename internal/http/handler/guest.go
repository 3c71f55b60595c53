package handler

import (
	"encoding/base64"
	"net/http"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/guest"
	"botfleet/internal/http/dto"
	"botfleet/internal/http/middleware"
	"botfleet/internal/infra/container"
)

// GuestHandler serves the three Guest Auth Core entry paths and the
// guest-facing read/rotate endpoints that follow a successful login.
type GuestHandler struct {
	container *container.Container
	validator *dto.DTOValidator
}

func NewGuestHandler(c *container.Container) *GuestHandler {
	return &GuestHandler{container: c, validator: dto.NewDTOValidator(c.Validator)}
}

func tokenResponse(token string) *dto.GuestTokenResponse {
	return &dto.GuestTokenResponse{Token: token, ExpiresIn: int64(guest.TokenTTL.Seconds())}
}

// SessionIDProof handles POST /guest/session-id-proof
func (h *GuestHandler) SessionIDProof(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionIDProofRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Credentials)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("credentials must be base64-encoded", "INVALID_CREDENTIALS", err.Error()))
		return
	}

	token, err := h.container.GuestUseCase.SessionIDProof(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("session linked", tokenResponse(token)))
}

// RequestOTP handles POST /guest/otp/request
func (h *GuestHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateRequestOTPRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.container.GuestUseCase.RequestOTP(r.Context(), req.Phone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("otp sent", nil))
}

// VerifyOTP handles POST /guest/otp/verify
func (h *GuestHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateVerifyOTPRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	token, err := h.container.GuestUseCase.VerifyOTP(r.Context(), req.Phone, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("otp verified", tokenResponse(token)))
}

// RotateCredentials handles POST /guest/credentials (guest-authenticated)
func (h *GuestHandler) RotateCredentials(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GuestClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.NewErrorResponse("missing guest claims", "UNAUTHORIZED", ""))
		return
	}
	var req dto.RotateCredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Credentials)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("credentials must be base64-encoded", "INVALID_CREDENTIALS", err.Error()))
		return
	}
	if err := h.container.GuestUseCase.RotateCredentials(r.Context(), claims, raw); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("credentials rotated", nil))
}

// Me handles GET /guest/me (guest-authenticated): the masked view of the
// guest's own bot.
func (h *GuestHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GuestClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.NewErrorResponse("missing guest claims", "UNAUTHORIZED", ""))
		return
	}
	id, err := bot.BotIDFromString(claims.BotID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id in token", "INVALID_BOT_ID", err.Error()))
		return
	}
	b, err := h.container.BotQuery.Get(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.MaskForGuest(dto.ToBotResponse(b))))
}
