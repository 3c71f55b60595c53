package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"botfleet/internal/domain/bot"
	"botfleet/internal/http/dto"
	"botfleet/internal/infra/container"
	botuc "botfleet/internal/usecases/bot"
	"botfleet/pkg/logger"
)

// BotAdminHandler serves the admin-authenticated bot CRUD and lifecycle
// endpoints, backed by the C5/C8 use cases wired in the Container.
type BotAdminHandler struct {
	container *container.Container
	validator *dto.DTOValidator
	logger    logger.Logger
}

func NewBotAdminHandler(c *container.Container) *BotAdminHandler {
	return &BotAdminHandler{
		container: c,
		validator: dto.NewDTOValidator(c.Validator),
		logger:    c.Logger,
	}
}

func (h *BotAdminHandler) botID(r *http.Request) (bot.BotID, error) {
	return bot.BotIDFromString(chi.URLParam(r, "botId"))
}

// Register handles POST /bots/register
func (h *BotAdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterBotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateRegisterBotRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.container.BotRegister.Execute(r.Context(), botuc.RegisterRequest{
		Name:           req.Name,
		Phone:          req.Phone,
		Credentials:    []byte(req.Credentials),
		SelectedServer: req.SelectedServer,
		ExplicitChoice: req.SelectedServer != "",
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewSuccessResponse("bot registered", &dto.RegisterBotResponse{
		Bot:              dto.ToBotResponse(result.Bot),
		CanonicalTenancy: result.CanonicalTenancy,
		CrossServer:      result.CrossServer,
	}))
}

// List handles GET /admin/bots
func (h *BotAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	bots, total, err := h.container.BotQuery.List(r.Context(), h.container.Tenancy, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bots listed", map[string]interface{}{
		"bots":  dto.ToBotResponseList(bots),
		"total": total,
	}))
}

// Get handles GET /admin/bots/{botId}
func (h *BotAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.ToBotResponse(b)))
}

// Approve handles POST /admin/bots/{botId}/approve
func (h *BotAdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	var req dto.ApproveBotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateApproveBotRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	approved, err := h.container.BotLifecycle.Approve(r.Context(), botuc.ApproveRequest{
		Tenancy:          h.container.Tenancy,
		BotID:            id,
		ExpirationMonths: req.ExpirationMonths,
		TargetTenancy:    req.TargetTenancy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bot approved", dto.ToBotResponse(approved)))
}

// Reject handles POST /admin/bots/{botId}/reject
func (h *BotAdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	b, err := h.container.BotLifecycle.Reject(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.ToBotResponse(b)))
}

// Revoke handles POST /admin/bots/{botId}/revoke
func (h *BotAdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	b, err := h.container.BotLifecycle.Revoke(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.ToBotResponse(b)))
}

// Delete handles DELETE /admin/bots/{botId}
func (h *BotAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	if err := h.container.BotLifecycle.Delete(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bot deleted", map[string]string{"status": "deleted"}))
}

// SetProxy handles PUT /admin/bots/{botId}/proxy
func (h *BotAdminHandler) SetProxy(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	var req dto.SetProxyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateSetProxyRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	b, err := h.container.BotQuery.Get(r.Context(), h.container.Tenancy, id)
	if err != nil {
		writeError(w, err)
		return
	}
	proxyURL, err := bot.NewProxyURL(req.ProxyURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid proxy url", "INVALID_PROXY_URL", err.Error()))
		return
	}
	b.SetProxyURL(proxyURL)
	if err := h.container.BotRepo.Update(r.Context(), h.container.Tenancy, b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.ToBotResponse(b)))
}

// Start handles POST /admin/bots/{botId}/start
func (h *BotAdminHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	if err := h.container.BotControl.Start(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bot starting", map[string]string{"status": "starting"}))
}

// Stop handles POST /admin/bots/{botId}/stop
func (h *BotAdminHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	if err := h.container.BotControl.Stop(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bot stopped", map[string]string{"status": "stopped"}))
}

// Restart handles POST /admin/bots/{botId}/restart
func (h *BotAdminHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, err := h.botID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid bot id", "INVALID_BOT_ID", err.Error()))
		return
	}
	if err := h.container.BotControl.Restart(r.Context(), h.container.Tenancy, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("bot restarting", map[string]string{"status": "restarting"}))
}

// BatchOperate handles POST /admin/bots/batch
func (h *BotAdminHandler) BatchOperate(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchOperateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateBatchOperateRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	items := make([]botuc.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, botuc.BatchItem{Tenancy: item.Tenancy, BotID: item.BotID})
	}

	results := h.container.BotLifecycle.BatchOperate(r.Context(), botuc.BatchOperation(req.Operation), items, req.MigrateTarget)

	out := make([]dto.BatchResultDTO, 0, len(results))
	for _, res := range results {
		item := dto.BatchResultDTO{Tenancy: res.Item.Tenancy, BotID: res.Item.BotID, Success: res.Error == nil}
		if res.Error != nil {
			item.Error = res.Error.Error()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("batch operation complete", out))
}
