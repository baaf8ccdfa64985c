package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/editor"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
	"github.com/dhanavadh/aiform-backend/internal/generator"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/schema"
)

type FormService struct {
	db        *gormdb.DB
	accounts  *AccountService
	generator generator.Generator
	formLimit int
	logger    *zap.Logger
}

func NewFormService(db *gormdb.DB, accounts *AccountService, gen generator.Generator, formLimit int, logger *zap.Logger) *FormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{
		db:        db,
		accounts:  accounts,
		generator: gen,
		formLimit: formLimit,
		logger:    logger,
	}
}

// FormSummary is one dashboard row. Title and Subheading are empty and
// Available is false when the stored schema does not parse.
type FormSummary struct {
	Record        gormmodels.FormRecord
	Title         string
	Subheading    string
	Available     bool
	ResponseCount int64
}

// Style is a whole replacement of a form's presentation settings.
type Style struct {
	Theme         string
	Background    string
	Style         string
	EnabledSignIn bool
}

// CreateFromDescription checks the quota, asks the generator for a schema and
// stores its text verbatim. Text that does not parse is still stored; the
// editor shows it as unavailable.
func (s *FormService) CreateFromDescription(ctx context.Context, email, description string) (*gormmodels.FormRecord, error) {
	if err := s.accounts.CheckQuota(ctx, email, s.formLimit); err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, description)
	if err != nil {
		return nil, err
	}

	if form, err := schema.Parse(text); err != nil {
		s.logger.Warn("generated schema does not parse", zap.String("owner", email), zap.Error(err))
	} else if dups := form.DuplicateNames(); len(dups) > 0 {
		s.logger.Warn("generated schema repeats field names", zap.Strings("fieldNames", dups))
	}

	record := &gormmodels.FormRecord{
		JSONForm:  text,
		CreatedBy: email,
		Version:   1,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to create form: %w", errorz.ErrPersistence, err)
	}

	s.logger.Info("form created", zap.Uint("formId", record.ID), zap.String("owner", email))
	return record, nil
}

func (s *FormService) ListByOwner(ctx context.Context, email string) ([]FormSummary, error) {
	var records []gormmodels.FormRecord
	err := s.db.WithContext(ctx).
		Where("created_by = ?", email).
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch forms: %w", errorz.ErrPersistence, err)
	}

	counts, err := s.responseCounts(ctx, records)
	if err != nil {
		return nil, err
	}

	summaries := make([]FormSummary, 0, len(records))
	for _, rec := range records {
		summary := FormSummary{Record: rec, ResponseCount: counts[rec.ID]}
		if form, err := schema.Parse(rec.JSONForm); err == nil {
			summary.Title = form.DisplayTitle()
			summary.Subheading = form.Subheading
			summary.Available = true
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *FormService) responseCounts(ctx context.Context, records []gormmodels.FormRecord) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(records))
	if len(records) == 0 {
		return counts, nil
	}

	ids := make([]uint, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	var rows []struct {
		FormReference uint
		Total         int64
	}
	err := s.db.WithContext(ctx).
		Model(&gormmodels.ResponseRecord{}).
		Select("form_reference, COUNT(*) AS total").
		Where("form_reference IN ?", ids).
		Group("form_reference").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count responses: %w", errorz.ErrPersistence, err)
	}

	for _, row := range rows {
		counts[row.FormReference] = row.Total
	}
	return counts, nil
}

// GetByID loads any form. Used by the public surface.
func (s *FormService) GetByID(ctx context.Context, id uint) (*gormmodels.FormRecord, error) {
	var record gormmodels.FormRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, formLookupError(id, err)
	}
	return &record, nil
}

// GetOwned loads a form only if email owns it. Other owners' forms report
// ErrNotFound so ids do not leak.
func (s *FormService) GetOwned(ctx context.Context, id uint, email string) (*gormmodels.FormRecord, error) {
	var record gormmodels.FormRecord
	if err := s.db.WithContext(ctx).Where("id = ? AND created_by = ?", id, email).First(&record).Error; err != nil {
		return nil, formLookupError(id, err)
	}
	return &record, nil
}

// OverwriteSchema replaces the stored schema with the normalized text of
// raw. With expectedVersion set the write only lands if nobody saved in
// between; without it the last write wins.
func (s *FormService) OverwriteSchema(ctx context.Context, id uint, email, raw string, expectedVersion *int) (*gormmodels.FormRecord, error) {
	form, err := schema.Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, id, email, form, expectedVersion)
}

// EditField splices a label/placeholder edit into the stored schema.
func (s *FormService) EditField(ctx context.Context, id uint, email string, index int, edit editor.Edit) (*gormmodels.FormRecord, error) {
	record, form, err := s.loadSchema(ctx, id, email)
	if err != nil {
		return nil, err
	}

	surface, err := editor.OpenSurface(form, index)
	if err != nil {
		return nil, err
	}
	confirmed, err := surface.Confirm(edit.Label, edit.Placeholder)
	if err != nil {
		return nil, err
	}

	updated, err := editor.ApplyEdit(form, surface.Index, confirmed)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, record.ID, email, updated, &record.Version)
}

// DeleteField removes one field once the caller has confirmed.
func (s *FormService) DeleteField(ctx context.Context, id uint, email string, index int, confirmed bool) (*gormmodels.FormRecord, error) {
	record, form, err := s.loadSchema(ctx, id, email)
	if err != nil {
		return nil, err
	}

	updated, err := editor.DeleteField(form, index, confirmed)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, record.ID, email, updated, &record.Version)
}

func (s *FormService) loadSchema(ctx context.Context, id uint, email string) (*gormmodels.FormRecord, *schema.Form, error) {
	record, err := s.GetOwned(ctx, id, email)
	if err != nil {
		return nil, nil, err
	}
	form, err := schema.Parse(record.JSONForm)
	if err != nil {
		return nil, nil, err
	}
	return record, form, nil
}

func (s *FormService) save(ctx context.Context, id uint, email string, form *schema.Form, expectedVersion *int) (*gormmodels.FormRecord, error) {
	text, err := schema.Serialize(form)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetOwned(ctx, id, email); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Model(&gormmodels.FormRecord{}).
		Where("id = ? AND created_by = ?", id, email)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}

	res := q.Updates(map[string]any{
		"jsonform":   text,
		"version":    gormdb.Expr("version + 1"),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: failed to save schema: %w", errorz.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: form %d", errorz.ErrVersionConflict, id)
	}

	return s.GetOwned(ctx, id, email)
}

// UpdateStyle overwrites every style setting at once.
func (s *FormService) UpdateStyle(ctx context.Context, id uint, email string, style Style) (*gormmodels.FormRecord, error) {
	if _, err := s.GetOwned(ctx, id, email); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Model(&gormmodels.FormRecord{}).
		Where("id = ? AND created_by = ?", id, email).
		Updates(map[string]any{
			"theme":           style.Theme,
			"background":      style.Background,
			"style":           style.Style,
			"enabled_sign_in": style.EnabledSignIn,
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update style: %w", errorz.ErrPersistence, err)
	}

	return s.GetOwned(ctx, id, email)
}

// Delete removes a form and every response that references it in one
// transaction, responses first. It returns how many responses went with it.
func (s *FormService) Delete(ctx context.Context, id uint, email string) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gormdb.DB) error {
		var record gormmodels.FormRecord
		if err := tx.Where("id = ? AND created_by = ?", id, email).First(&record).Error; err != nil {
			if errors.Is(err, gormdb.ErrRecordNotFound) {
				return fmt.Errorf("%w: form %d", errorz.ErrNotFound, id)
			}
			return err
		}

		res := tx.Where("form_reference = ?", record.ID).Delete(&gormmodels.ResponseRecord{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		if err := tx.Where("id = ? AND created_by = ?", record.ID, email).Delete(&gormmodels.FormRecord{}).Error; err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: failed to delete form: %w", errorz.ErrPersistence, err)
	}

	s.logger.Info("form deleted", zap.Uint("formId", id), zap.Int64("responses", removed))
	return removed, nil
}
