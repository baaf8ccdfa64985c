package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal/checkout"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
	"github.com/dhanavadh/aiform-backend/internal/payment"
)

type PaymentService struct {
	gateway  payment.Gateway
	pending  checkout.Store
	accounts *AccountService
	amount   int
	logger   *zap.Logger
}

func NewPaymentService(gateway payment.Gateway, pending checkout.Store, accounts *AccountService, amount int, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		gateway:  gateway,
		pending:  pending,
		accounts: accounts,
		amount:   amount,
		logger:   logger,
	}
}

// Checkout starts a payment for email and returns where to send the payer.
func (s *PaymentService) Checkout(ctx context.Context, email string) (*payment.Checkout, error) {
	if _, err := s.accounts.Ensure(ctx, email); err != nil {
		return nil, err
	}

	co, err := s.gateway.InitiateCheckout(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.pending.Save(ctx, co.TransactionID, checkout.Pending{Email: email, Amount: s.amount}); err != nil {
		return nil, fmt.Errorf("%w: %w", errorz.ErrPersistence, err)
	}

	s.logger.Info("checkout started", zap.String("transactionId", co.TransactionID), zap.String("email", email))
	return co, nil
}

// Settle asks the gateway how a transaction ended and, on success, lifts the
// quota of the account that started it.
func (s *PaymentService) Settle(ctx context.Context, merchantID, transactionID string) (*payment.Status, error) {
	status, err := s.gateway.CheckStatus(ctx, merchantID, transactionID)
	if err != nil {
		return nil, err
	}

	p, ok, err := s.pending.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errorz.ErrPersistence, err)
	}
	if !ok {
		s.logger.Warn("status for unknown checkout", zap.String("transactionId", transactionID), zap.String("code", status.Code))
		return status, nil
	}

	if status.Code == payment.CodePending {
		return status, nil
	}

	outcome := checkout.StatusFailed
	if status.Paid() {
		if err := s.accounts.MarkPaid(ctx, p.Email); err != nil {
			return nil, err
		}
		outcome = checkout.StatusCompleted
	}

	if err := s.pending.Finish(ctx, transactionID, outcome); err != nil {
		s.logger.Warn("failed to finish checkout", zap.String("transactionId", transactionID), zap.Error(err))
	}

	s.logger.Info("checkout settled",
		zap.String("transactionId", transactionID),
		zap.String("code", status.Code),
		zap.String("email", p.Email))
	return status, nil
}
