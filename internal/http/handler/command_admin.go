package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"botfleet/internal/domain/registry"
	"botfleet/internal/http/dto"
	"botfleet/internal/infra/container"
)

// CommandAdminHandler serves admin-authenticated CRUD over a tenancy's
// declarative bot commands. Commands here are data rows consulted by a
// fixed dispatcher, never arbitrary code.
type CommandAdminHandler struct {
	container *container.Container
	validator *dto.DTOValidator
}

func NewCommandAdminHandler(c *container.Container) *CommandAdminHandler {
	return &CommandAdminHandler{container: c, validator: dto.NewDTOValidator(c.Validator)}
}

// Create handles POST /admin/commands
func (h *CommandAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateCommandRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	cmd := registry.NewCommand(h.container.Tenancy.String(), req.Trigger, req.Description)
	cmd.Enabled = req.Enabled
	if err := h.container.CommandRepo.Create(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewSuccessResponse("command created", dto.ToCommandResponse(cmd)))
}

// List handles GET /admin/commands
func (h *CommandAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	commands, err := h.container.CommandRepo.List(r.Context(), h.container.Tenancy.String())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("commands listed", dto.ToCommandResponseList(commands)))
}

// Update handles PUT /admin/commands/{trigger}
func (h *CommandAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	trigger := chi.URLParam(r, "trigger")
	existing, err := h.container.CommandRepo.GetByTrigger(r.Context(), h.container.Tenancy.String(), trigger)
	if err != nil {
		writeError(w, err)
		return
	}

	var req dto.CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse("invalid request body", "INVALID_BODY", err.Error()))
		return
	}
	if err := h.validator.ValidateCommandRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	existing.Description = req.Description
	existing.Enabled = req.Enabled
	if err := h.container.CommandRepo.Update(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("command updated", dto.ToCommandResponse(existing)))
}

// Delete handles DELETE /admin/commands/{id}
func (h *CommandAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.container.CommandRepo.Delete(r.Context(), h.container.Tenancy.String(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSuccessResponse("command deleted", map[string]string{"status": "deleted"}))
}
