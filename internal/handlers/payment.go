package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	cfg            config.PaymentConfig
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, cfg config.PaymentConfig, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		paymentService: paymentService,
		cfg:            cfg,
		logger:         logger,
	}
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	email, _ := auth.Email(c)

	co, err := h.paymentService.Checkout(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionId": co.TransactionID,
		"redirectUrl":   co.RedirectURL,
	})
}

// Status is where the gateway posts the payer back. Paid and unpaid outcomes
// have separate configurable destinations; both default to the dashboard.
// The status check always runs under the configured merchant.
func (h *PaymentHandler) Status(c *gin.Context) {
	merchantID := h.cfg.MerchantID
	transactionID := c.PostForm("transactionId")
	if transactionID == "" {
		transactionID = c.Param("id")
	}

	status, err := h.paymentService.Settle(c.Request.Context(), merchantID, transactionID)
	if err != nil {
		h.logger.Error("payment status check failed",
			zap.String("transactionId", transactionID),
			zap.String("callbackCode", c.PostForm("code")),
			zap.Error(err))
		c.Redirect(http.StatusMovedPermanently, h.cfg.ErrorRedirect)
		return
	}

	if status.Paid() {
		c.Redirect(http.StatusMovedPermanently, h.cfg.SuccessRedirect)
		return
	}
	c.Redirect(http.StatusMovedPermanently, h.cfg.FailureRedirect)
}
