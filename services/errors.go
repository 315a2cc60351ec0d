package services

import (
	"errors"

	"github.com/Dosada05/chanbara-tournament/repositories"
)

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	// Validation and business rules (400)
	ErrValidationFailed         = errors.New("validation failed")
	ErrChallengeAlreadyResolved = errors.New("challenge already has a winner")

	// Authentication (401)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("authentication token is required")

	// Authorization and registration gate (403)
	ErrForbiddenOperation    = errors.New("operation not allowed for the current user")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrRegistrationClosed    = errors.New("registrations are closed")
	ErrRegistrationStillOpen = errors.New("challenges can be created only after registrations are closed")

	// Not found (404)
	ErrAthleteNotFound   = errors.New("athlete not found")
	ErrSpecialtyNotFound = errors.New("specialty not found")
	ErrChallengeNotFound = errors.New("challenge not found")

	// Conflicts (409)
	ErrEmailConflict     = errors.New("email address is already registered")
	ErrChallengeConflict = errors.New("a challenge between these athletes already exists on this date")

	// Optional infrastructure (503)
	ErrStorageDisabled = errors.New("file storage is not configured")
)

// handleRepositoryError translates repository sentinels into service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrAthleteNotFound):
		return ErrAthleteNotFound
	case errors.Is(err, repositories.ErrAthleteEmailConflict):
		return ErrEmailConflict
	case errors.Is(err, repositories.ErrSpecialtyNotFound):
		return ErrSpecialtyNotFound
	case errors.Is(err, repositories.ErrChallengeNotFound):
		return ErrChallengeNotFound
	case errors.Is(err, repositories.ErrChallengeConflict):
		return ErrChallengeConflict
	case errors.Is(err, repositories.ErrChallengeAlreadyResolved):
		return ErrChallengeAlreadyResolved
	default:
		return err
	}
}
