package handlers

import (
	"net/http"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// List accepts an optional ?date=YYYY-MM-DD filter.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	var date *models.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		date = &parsed
	}

	challenges, err := h.challengeService.List(r.Context(), date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, challenges)
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := currentAthleteID(w, r)
	if !ok {
		return
	}

	var input models.NewChallenge
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	challenge, err := h.challengeService.Create(r.Context(), athleteID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{
		"message":   "challenge created",
		"challenge": challenge,
	})
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challengeID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	challenge, err := h.challengeService.Get(r.Context(), challengeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, challenge)
}

func (h *ChallengeHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	challengeID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerID int `json:"vincitore_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.challengeService.RecordResult(r.Context(), challengeID, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{
		"message": "result recorded",
		"winner":  result,
	})
}
