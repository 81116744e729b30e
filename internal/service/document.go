package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
	"github.com/adityardiansyah/smart-agen/internal/metrics"
	"github.com/adityardiansyah/smart-agen/internal/repo"
)

// DefaultMaxUploadBytes is the document size limit when none is configured.
const DefaultMaxUploadBytes = 2 << 20

var documentExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

// FileStore persists uploaded files. *storage.LocalStore satisfies it.
type FileStore interface {
	Save(dir, ext string, r io.Reader) (string, error)
	Remove(rel string) error
}

// Upload is one uploaded file as received from the client.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// DocumentService stores KEUR/STNK scans for fleets and SIM scans for
// drivers, replacing any previous file.
type DocumentService struct {
	fleets   repo.FleetRepo
	drivers  repo.DriverRepo
	files    FileStore
	maxBytes int64
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewDocumentService constructs a DocumentService. A maxBytes of zero or
// less uses DefaultMaxUploadBytes; m may be nil.
func NewDocumentService(fleets repo.FleetRepo, drivers repo.DriverRepo, files FileStore, maxBytes int64, log *slog.Logger, m *metrics.Metrics) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentService{fleets: fleets, drivers: drivers, files: files, maxBytes: maxBytes, log: log, metrics: m}
}

// MaxBytes returns the accepted document size limit.
func (s *DocumentService) MaxBytes() int64 { return s.maxBytes }

// Upload saves a document for the fleet (keur, stnk) or driver (sim)
// identified by ownerID and returns its path relative to the upload root.
func (s *DocumentService) Upload(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID, up Upload) (string, error) {
	rel, err := s.upload(ctx, scope, kind, ownerID, up)
	s.metrics.IncUpload(string(kind), outcome(err))
	if err != nil {
		return "", fmt.Errorf("service.DocumentService.Upload: %w", err)
	}
	return rel, nil
}

func (s *DocumentService) upload(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID, up Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	switch {
	case !kind.Valid():
		return "", fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	case !slices.Contains(documentExtensions, ext):
		return "", fmt.Errorf("%w: document must be a pdf, jpg, jpeg or png file", domain.ErrValidation)
	case up.Size > s.maxBytes:
		return "", fmt.Errorf("%w: document must be at most %d KB", domain.ErrValidation, s.maxBytes>>10)
	}

	previous, err := s.currentDocument(ctx, scope, kind, ownerID)
	if err != nil {
		return "", err
	}

	// Guard against a client that lied about Size.
	body := io.LimitReader(up.Body, s.maxBytes+1)
	counted := &countingReader{r: body}
	rel, err := s.files.Save(path.Join("documents", string(kind)), ext, counted)
	if err != nil {
		return "", err
	}
	if counted.n > s.maxBytes {
		s.discard(ctx, rel)
		return "", fmt.Errorf("%w: document must be at most %d KB", domain.ErrValidation, s.maxBytes>>10)
	}

	if kind == domain.DocumentSim {
		err = s.drivers.SetDocument(ctx, ownerID, rel)
	} else {
		err = s.fleets.SetDocument(ctx, ownerID, kind, rel)
	}
	if err != nil {
		s.discard(ctx, rel)
		return "", err
	}

	if previous != "" {
		s.discard(ctx, previous)
	}
	s.log.InfoContext(ctx, "document stored", "kind", kind, "owner_id", ownerID, "path", rel)
	return rel, nil
}

// currentDocument loads the owner, checks scope and returns its current path.
func (s *DocumentService) currentDocument(ctx context.Context, scope domain.AreaScope, kind domain.DocumentKind, ownerID uuid.UUID) (string, error) {
	if kind == domain.DocumentSim {
		d, err := s.drivers.GetByID(ctx, ownerID)
		if err != nil {
			return "", err
		}
		if err := checkScope(scope, d.AreaID); err != nil {
			return "", err
		}
		return d.SimDocument, nil
	}

	f, err := s.fleets.GetByID(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if err := checkScope(scope, f.AreaID); err != nil {
		return "", err
	}
	if kind == domain.DocumentKeur {
		return f.KeurDocument, nil
	}
	return f.StnkDocument, nil
}

func (s *DocumentService) discard(ctx context.Context, rel string) {
	if err := s.files.Remove(rel); err != nil {
		s.log.WarnContext(ctx, "document cleanup failed", "path", rel, "error", err)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
