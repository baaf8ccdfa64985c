package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/export"
	gormmodels "github.com/dhanavadh/aiform-backend/internal/models/gorm"
	"github.com/dhanavadh/aiform-backend/internal/storage"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	signedURLExpiry = time.Hour
)

type ExportService struct {
	db       *gormdb.DB
	exporter *export.Exporter
	uploader storage.Uploader
}

// NewExportService builds the service. uploader may be nil when no bucket is
// configured; Upload then fails.
func NewExportService(db *gormdb.DB, exporter *export.Exporter, uploader storage.Uploader) *ExportService {
	return &ExportService{db: db, exporter: exporter, uploader: uploader}
}

type Artifact struct {
	Filename string
	Table    *export.Table
	Data     []byte
}

// Build loads a form and its responses concurrently and writes the xlsx
// file. An empty email skips the ownership check, for offline tooling.
func (s *ExportService) Build(ctx context.Context, formID uint, email string) (*Artifact, error) {
	var (
		record    gormmodels.FormRecord
		responses []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := s.db.WithContext(gctx).Where("id = ?", formID)
		if email != "" {
			q = q.Where("created_by = ?", email)
		}
		if err := q.First(&record).Error; err != nil {
			return formLookupError(formID, err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).
			Model(&gormmodels.ResponseRecord{}).
			Where("form_reference = ?", formID).
			Order("id ASC").
			Pluck("json_response", &responses).Error
		if err != nil {
			return persistenceError("failed to fetch responses", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table, err := s.exporter.FromText(record.JSONForm, responses)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table); err != nil {
		return nil, err
	}

	return &Artifact{
		Filename: table.Filename(),
		Table:    table,
		Data:     buf.Bytes(),
	}, nil
}

// Upload stores an artifact in the bucket and returns a short-lived link.
func (s *ExportService) Upload(ctx context.Context, formID uint, artifact *Artifact) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("export storage is not configured")
	}

	objectName := storage.ExportObjectName(formID, artifact.Filename, time.Now())
	if _, err := s.uploader.UploadFile(ctx, bytes.NewReader(artifact.Data), objectName, XLSXContentType); err != nil {
		return "", err
	}

	url, err := s.uploader.GetSignedURL(objectName, signedURLExpiry)
	if err != nil {
		// an object nobody can reach is removed rather than left in the bucket
		if delErr := s.uploader.DeleteFile(ctx, objectName); delErr != nil {
			return "", fmt.Errorf("%w (cleanup of %s failed: %v)", err, objectName, delErr)
		}
		return "", err
	}
	return url, nil
}
