package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal"
	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/checkout"
	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/export"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/payment"
	"github.com/dhanavadh/aiform-backend/internal/services"
)

const (
	ownerEmail = "owner@example.com"
	rsvpSchema = `{"formTitle":"RSVP","fields":[{"fieldName":"attend","fieldType":"radiogroup","formLabel":"Attending?","placeholderName":"Pick","options":[{"label":"Yes","value":"y"},{"label":"No","value":"n"}]},{"fieldName":"meals","fieldType":"checkbox","formLabel":"Meals","placeholderName":"Pick","options":[{"label":"A","value":"a"},{"label":"B","value":"b"},{"label":"C","value":"c"}]}]}`
)

type stubGenerator struct{ text string }

func (s *stubGenerator) Generate(context.Context, string) (string, error) { return s.text, nil }

type stubGateway struct {
	code       string
	merchantID string
}

func (s *stubGateway) InitiateCheckout(context.Context) (*payment.Checkout, error) {
	return &payment.Checkout{TransactionID: "Tr-test", RedirectURL: "https://pay.example/Tr-test"}, nil
}

func (s *stubGateway) CheckStatus(_ context.Context, merchantID, _ string) (*payment.Status, error) {
	s.merchantID = merchantID
	return &payment.Status{Code: s.code}, nil
}

type stubPrinter struct{ html string }

func (s *stubPrinter) Print(_ context.Context, html string) ([]byte, error) {
	s.html = html
	return []byte("%PDF-1.4 stub"), nil
}

type testServer struct {
	router   *gin.Engine
	db       *gormdb.DB
	gen      *stubGenerator
	gateway  *stubGateway
	printer  *stubPrinter
	verifier *auth.Verifier
	payCfg   config.PaymentConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gormdb.Open(sqlite.Open(":memory:"), &gormdb.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, internal.AutoMigrate(db))

	ts := &testServer{
		db:       db,
		gen:      &stubGenerator{text: rsvpSchema},
		gateway:  &stubGateway{code: payment.CodeSuccess},
		printer:  &stubPrinter{},
		verifier: auth.NewVerifier("test-secret"),
		payCfg: config.PaymentConfig{
			MerchantID:      "MERCHANT",
			SuccessRedirect: "http://app.test/dashboard",
			FailureRedirect: "http://app.test/dashboard?payment=failed",
			ErrorRedirect:   "http://app.test/error",
		},
	}
	server := config.ServerConfig{BaseURL: "http://app.test"}

	accounts := services.NewAccountService(db)
	forms := services.NewFormService(db, accounts, ts.gen, 3, nil)
	responses := services.NewResponseService(db, forms, nil)
	exports := services.NewExportService(db, export.New(nil), nil)
	payments := services.NewPaymentService(ts.gateway, checkout.NewDBStore(db), accounts, 100, nil)

	ts.router = gin.New()
	RegisterRoutes(ts.router, Handlers{
		Forms:     NewFormHandler(forms, server),
		Pages:     NewPageHandler(forms, responses, "http://app.test/sign-in", nil),
		Public:    NewPublicHandler(forms, responses),
		Responses: NewResponseHandler(forms, responses, exports, ts.printer),
		Payments:  NewPaymentHandler(payments, ts.payCfg, nil),
	}, ts.verifier)
	return ts
}

func (ts *testServer) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := ts.verifier.Issue(email, jwt.RegisteredClaims{})
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, email string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, email))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) json(t *testing.T, method, path, email, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return ts.do(t, method, path, email, r, "application/json")
}

func (ts *testServer) post(t *testing.T, path, email string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, path, email, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (ts *testServer) createForm(t *testing.T) uint {
	t.Helper()
	w := ts.json(t, http.MethodPost, "/api/forms", ownerEmail, `{"description":"wedding rsvp"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		ID       uint   `json:"id"`
		EditURL  string `json:"editUrl"`
		ShareURL string `json:"shareUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func countResponses(t *testing.T, db *gormdb.DB, formID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&gormmodels.ResponseRecord{}).Where("form_reference = ?", formID).Count(&n).Error)
	return n
}
