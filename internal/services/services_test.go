package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal"
	"github.com/dhanavadh/aiform-backend/internal/payment"
	"github.com/dhanavadh/aiform-backend/internal/storage"
)

const rsvpSchema = `{"formTitle":"RSVP","fields":[{"fieldName":"attend","fieldType":"radiogroup","formLabel":"Attending?","placeholderName":"Pick one","options":[{"label":"Yes","value":"y"},{"label":"No","value":"n"}]},{"fieldName":"name","fieldType":"text","formLabel":"Name","placeholderName":"Your name"}]}`

func openDB(t *testing.T) *gormdb.DB {
	t.Helper()
	db, err := gormdb.Open(sqlite.Open(":memory:"), &gormdb.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, internal.AutoMigrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeGateway struct {
	checkout *payment.Checkout
	status   *payment.Status
	err      error
}

func (f *fakeGateway) InitiateCheckout(context.Context) (*payment.Checkout, error) {
	return f.checkout, f.err
}

func (f *fakeGateway) CheckStatus(context.Context, string, string) (*payment.Status, error) {
	return f.status, f.err
}

type fakeUploader struct {
	objects map[string][]byte
	signErr error
}

func (f *fakeUploader) UploadFile(_ context.Context, r io.Reader, objectName, _ string) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = buf.Bytes()
	return &storage.UploadResult{ObjectName: objectName, Size: n}, nil
}

func (f *fakeUploader) GetSignedURL(objectName string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://storage.example/" + objectName + "?sig=1", nil
}

func (f *fakeUploader) DeleteFile(_ context.Context, objectName string) error {
	delete(f.objects, objectName)
	return nil
}

type fixture struct {
	db        *gormdb.DB
	gen       *fakeGenerator
	accounts  *AccountService
	forms     *FormService
	responses *ResponseService
}

func newFixture(t *testing.T) *fixture {
	db := openDB(t)
	gen := &fakeGenerator{text: rsvpSchema}
	accounts := NewAccountService(db)
	forms := NewFormService(db, accounts, gen, 3, nil)
	return &fixture{
		db:        db,
		gen:       gen,
		accounts:  accounts,
		forms:     forms,
		responses: NewResponseService(db, forms, nil),
	}
}
