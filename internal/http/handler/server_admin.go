package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"botfleet/internal/domain/registry"
	"botfleet/internal/http/dto"
	"botfleet/internal/infra/container"
)

// ServerAdminHandler serves admin-authenticated CRUD over the fleet's
// tenancy catalog (the God Registry's server side, C1).
type ServerAdminHandler struct {
	container *container.Container
	validator *dto.DTOValidator
}

func NewServerAdminHandler(c *container.Container) *ServerAdminHandler {
	return &ServerAdminHandler{container: c, validator: dto.NewDTOValidator(c.Validator)}
}

// Register handles POST /admin/servers
func (h *ServerAdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateRegisterServerRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	now := time.Now()
	server := &registry.Server{
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		SharedSecret: req.SharedSecret,
		Capacity:     req.Capacity,
		Healthy:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.container.ServerRepo.Create(r.Context(), server); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewSuccessResponse("server registered", dto.ToServerResponse(server)))
}

// List handles GET /admin/servers
func (h *ServerAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.container.ServerRepo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("servers listed", dto.ToServerResponseList(servers)))
}

// Get handles GET /admin/servers/{name}
func (h *ServerAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	server, err := h.container.ServerRepo.GetByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", dto.ToServerResponse(server)))
}

// SetHealthy handles PUT /admin/servers/{name}/health
func (h *ServerAdminHandler) SetHealthy(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Healthy bool `json:"healthy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.container.ServerRepo.SetHealthy(r.Context(), name, req.Healthy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("ok", map[string]bool{"healthy": req.Healthy}))
}
