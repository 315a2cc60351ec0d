package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/services"
)

type AdminHandler struct {
	configService  services.ConfigService
	authService    services.AuthService
	athleteService services.AthleteService
	reportService  services.ReportService
}

func NewAdminHandler(
	configService services.ConfigService,
	authService services.AuthService,
	athleteService services.AthleteService,
	reportService services.ReportService,
) *AdminHandler {
	return &AdminHandler{
		configService:  configService,
		authService:    authService,
		athleteService: athleteService,
		reportService:  reportService,
	}
}

func (h *AdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configService.Get(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, cfg)
}

func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var input models.TournamentConfigUpdate
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cfg, err := h.configService.Update(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, cfg)
}

func (h *AdminHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configService.CloseRegistration(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"message": "registrations closed",
		"config":  cfg,
	})
}

// BulkCreateAthletes takes a JSON array of {nome, email, password}.
func (h *AdminHandler) BulkCreateAthletes(w http.ResponseWriter, r *http.Request) {
	var input []models.NewAthlete
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.authService.BulkCreateAthletes(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"message": fmt.Sprintf("%d athletes created", len(created)),
		"atleti":  created,
	})
}

func (h *AdminHandler) UpdateAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input models.AthleteUpdate
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.Update(r.Context(), athleteID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, athlete)
}

func (h *AdminHandler) DeleteAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.athleteService.Delete(r.Context(), athleteID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.reportService.Rankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ranking)
}

func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.Statistics(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats)
}
