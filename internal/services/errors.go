package services

import (
	"errors"
	"fmt"

	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

func formLookupError(id uint, err error) error {
	if errors.Is(err, gormdb.ErrRecordNotFound) {
		return fmt.Errorf("%w: form %d", errorz.ErrNotFound, id)
	}
	return persistenceError("failed to fetch form", err)
}

func persistenceError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", errorz.ErrPersistence, msg, err)
}
