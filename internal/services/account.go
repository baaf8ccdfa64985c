package services

import (
	"context"
	"fmt"

	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

type AccountService struct {
	db *gormdb.DB
}

func NewAccountService(db *gormdb.DB) *AccountService {
	return &AccountService{db: db}
}

// Ensure returns the account for email, creating it on first use.
func (s *AccountService) Ensure(ctx context.Context, email string) (*gormmodels.Account, error) {
	var account gormmodels.Account
	err := s.db.WithContext(ctx).
		Where(gormmodels.Account{Email: email}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to ensure account: %w", errorz.ErrPersistence, err)
	}
	return &account, nil
}

// MarkPaid lifts the form quota for email.
func (s *AccountService) MarkPaid(ctx context.Context, email string) error {
	if _, err := s.Ensure(ctx, email); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Model(&gormmodels.Account{}).
		Where("email = ?", email).
		Update("payment_success", true).Error
	if err != nil {
		return fmt.Errorf("%w: failed to mark account paid: %w", errorz.ErrPersistence, err)
	}
	return nil
}

// CheckQuota fails with ErrQuotaExceeded when an unpaid account already owns
// limit forms.
func (s *AccountService) CheckQuota(ctx context.Context, email string, limit int) error {
	account, err := s.Ensure(ctx, email)
	if err != nil {
		return err
	}
	if account.PaymentSuccess {
		return nil
	}

	var count int64
	err = s.db.WithContext(ctx).
		Model(&gormmodels.FormRecord{}).
		Where("created_by = ?", email).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("%w: failed to count forms: %w", errorz.ErrPersistence, err)
	}

	if count >= int64(limit) {
		return fmt.Errorf("%w: %d of %d free forms used", errorz.ErrQuotaExceeded, count, limit)
	}
	return nil
}
