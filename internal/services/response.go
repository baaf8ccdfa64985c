package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

type ResponseService struct {
	db     *gormdb.DB
	forms  *FormService
	logger *zap.Logger
}

func NewResponseService(db *gormdb.DB, forms *FormService, logger *zap.Logger) *ResponseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseService{db: db, forms: forms, logger: logger}
}

// Submit stores one response. email is empty for anonymous respondents,
// which forms requiring sign-in refuse. Nothing is deduplicated.
func (s *ResponseService) Submit(ctx context.Context, formID uint, email, body string) (*gormmodels.ResponseRecord, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.EnabledSignIn && email == "" {
		return nil, fmt.Errorf("%w: form %d requires sign in", errorz.ErrUnauthenticated, formID)
	}

	createdBy := email
	if createdBy == "" {
		createdBy = gormmodels.AnonymousResponder
	}

	record := &gormmodels.ResponseRecord{
		JSONResponse:  body,
		CreatedBy:     createdBy,
		FormReference: form.ID,
		CreatedAt:     time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to save response: %w", errorz.ErrPersistence, err)
	}
	return record, nil
}

func (s *ResponseService) ListByForm(ctx context.Context, formID uint) ([]gormmodels.ResponseRecord, error) {
	var records []gormmodels.ResponseRecord
	err := s.db.WithContext(ctx).
		Where("form_reference = ?", formID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch responses: %w", errorz.ErrPersistence, err)
	}
	return records, nil
}

// ListOwned returns a form's responses after checking email owns the form.
func (s *ResponseService) ListOwned(ctx context.Context, formID uint, email string) ([]gormmodels.ResponseRecord, error) {
	if _, err := s.forms.GetOwned(ctx, formID, email); err != nil {
		return nil, err
	}
	return s.ListByForm(ctx, formID)
}

// Orphans finds responses whose form no longer exists. Unless dryRun is set
// they are deleted. The ids found are returned either way.
func (s *ResponseService) Orphans(ctx context.Context, dryRun bool) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&gormmodels.ResponseRecord{}).
		Where("form_reference NOT IN (?)", s.db.Model(&gormmodels.FormRecord{}).Select("id")).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find orphaned responses: %w", errorz.ErrPersistence, err)
	}

	if dryRun || len(ids) == 0 {
		return ids, nil
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&gormmodels.ResponseRecord{}).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to delete orphaned responses: %w", errorz.ErrPersistence, err)
	}

	s.logger.Info("orphaned responses deleted", zap.Int("count", len(ids)))
	return ids, nil
}
