package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/storage"
	"github.com/jmoiron/sqlx"
)

// Clock yields the current calendar day in the tournament's time zone.
type Clock interface {
	Today() models.Date
}

type locationClock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return locationClock{loc: loc}
}

func (c locationClock) Today() models.Date {
	return models.DateOf(time.Now().In(c.loc))
}

// withTx runs fn in a transaction, committing when it returns nil and rolling back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, logger *slog.Logger, fn func(tx *sqlx.Tx) error) (txErr error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func populateAvatarURL(athlete *models.Athlete, uploader storage.FileUploader) {
	if athlete == nil || athlete.AvatarKey == nil || *athlete.AvatarKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*athlete.AvatarKey); url != "" {
		athlete.AvatarURL = &url
	}
}

// extensionFromContentType accepts the raster image types browsers upload.
func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", validationError("unsupported image type %q", contentType)
	}
}
