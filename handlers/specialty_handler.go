package handlers

import (
	"net/http"

	"github.com/Dosada05/chanbara-tournament/services"
)

type SpecialtyHandler struct {
	specialtyService services.SpecialtyService
}

func NewSpecialtyHandler(specialtyService services.SpecialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{specialtyService: specialtyService}
}

func (h *SpecialtyHandler) List(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.specialtyService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, specialties)
}
