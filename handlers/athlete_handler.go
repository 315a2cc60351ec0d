package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chanbara-tournament/services"
)

const maxAvatarSize = 5 << 20 // 5MB

type AthleteHandler struct {
	athleteService services.AthleteService
}

func NewAthleteHandler(athleteService services.AthleteService) *AthleteHandler {
	return &AthleteHandler{athleteService: athleteService}
}

func (h *AthleteHandler) List(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.athleteService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, athletes)
}

func (h *AthleteHandler) Profile(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := currentAthleteID(w, r)
	if !ok {
		return
	}

	profile, err := h.athleteService.Profile(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, profile)
}

func (h *AthleteHandler) PossibleOpponents(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := currentAthleteID(w, r)
	if !ok {
		return
	}

	opponents, err := h.athleteService.PossibleOpponents(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, opponents)
}

// UploadAvatar expects a multipart form with the image in the "avatar" field.
func (h *AthleteHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := currentAthleteID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+1024)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			badRequestResponse(w, r, errors.New("avatar must not be larger than 5MB"))
			return
		}
		badRequestResponse(w, r, errors.New("request must be multipart/form-data"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		badRequestResponse(w, r, errors.New("avatar must not be larger than 5MB"))
		return
	}

	athlete, err := h.athleteService.UploadAvatar(r.Context(), athleteID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"user": athlete})
}
