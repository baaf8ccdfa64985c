// Package payment talks to the hosted checkout gateway. Every call carries an
// X-VERIFY checksum computed here from the server-held salt key.
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"

	CodeSuccess = "PAYMENT_SUCCESS"
	CodePending = "PAYMENT_PENDING"
)

type Instrument struct {
	Type string `json:"type"`
}

type Payload struct {
	MerchantID            string     `json:"merchantId"`
	MerchantTransactionID string     `json:"merchantTransactionId"`
	MerchantUserID        string     `json:"merchantUserId"`
	Amount                int        `json:"amount"`
	RedirectURL           string     `json:"redirectUrl"`
	RedirectMode          string     `json:"redirectMode"`
	CallbackURL           string     `json:"callbackUrl"`
	MobileNumber          string     `json:"mobileNumber,omitempty"`
	PaymentInstrument     Instrument `json:"paymentInstrument"`
}

type Checkout struct {
	TransactionID string
	RedirectURL   string
}

type Status struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Status) Paid() bool {
	return s.Code == CodeSuccess
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Gateway is the slice of the client the services depend on.
type Gateway interface {
	InitiateCheckout(ctx context.Context) (*Checkout, error)
	CheckStatus(ctx context.Context, merchantID, transactionID string) (*Status, error)
}

type Client struct {
	cfg        config.PaymentConfig
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a gateway client. baseURL is where the gateway redirects
// the payer back to this service.
func NewClient(cfg config.PaymentConfig, baseURL string) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Checksum is hex(sha256(body + path + saltKey)) followed by "###" and the
// salt index.
func Checksum(body, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(body + path + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

func NewTransactionID() string {
	return "Tr-" + shortID()
}

func newMerchantUserID() string {
	return "MUID-" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (c *Client) payload(txn string) Payload {
	callback := fmt.Sprintf("%s/api/status/%s", c.baseURL, txn)
	return Payload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: txn,
		MerchantUserID:        newMerchantUserID(),
		Amount:                c.cfg.Amount,
		RedirectURL:           callback,
		RedirectMode:          "POST",
		CallbackURL:           callback,
		MobileNumber:          c.cfg.MobileNumber,
		PaymentInstrument:     Instrument{Type: "PAY_PAGE"},
	}
}

func (c *Client) InitiateCheckout(ctx context.Context) (*Checkout, error) {
	txn := NewTransactionID()

	raw, err := json.Marshal(c.payload(txn))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum(encoded, payPath, c.cfg.SaltKey, c.cfg.SaltIndex))

	var out gatewayResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	redirect := out.Data.InstrumentResponse.RedirectInfo.URL
	if redirect == "" {
		return nil, fmt.Errorf("%w: no redirect url in response (code %s)", errorz.ErrGateway, out.Code)
	}

	return &Checkout{TransactionID: txn, RedirectURL: redirect}, nil
}

func (c *Client) CheckStatus(ctx context.Context, merchantID, transactionID string) (*Status, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, merchantID, transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum("", path, c.cfg.SaltKey, c.cfg.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", merchantID)

	var out gatewayResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &Status{Success: out.Success, Code: out.Code, Message: out.Message}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errorz.ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", errorz.ErrGateway, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", errorz.ErrGateway, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", errorz.ErrGateway, err)
	}
	return nil
}
