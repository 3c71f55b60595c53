package handler

import (
	"encoding/json"
	"net/http"

	"botfleet/internal/http/dto"
)

var errorMapper = dto.NewErrorMapper()

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	dtoErr := errorMapper.MapError(err)
	writeJSON(w, dtoErr.StatusCode, dtoErr.ToErrorResponse())
}

func writeValidationError(w http.ResponseWriter, err error) {
	if verrs, ok := err.(dto.ValidationErrors); ok {
		writeJSON(w, http.StatusBadRequest, verrs.ToValidationErrorResponse())
		return
	}
	writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse(err.Error(), "VALIDATION_FAILED", ""))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
