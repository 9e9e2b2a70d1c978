package listener

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablero/internal"
	"tablero/internal/config"
	"tablero/internal/connectors"
	"tablero/internal/pipeline"
	"tablero/internal/storage"
)

// ConnectorFactory builds the mailbox connector used on each cycle.
type ConnectorFactory func(provider string, cfg config.Config) (connectors.MailConnector, error)

type Service struct {
	db   *storage.DB
	cfg  config.Config
	log  *zap.Logger
	dial ConnectorFactory
}

func NewService(db *storage.DB, cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, log: log, dial: connectors.New}
}

// WithConnector replaces the connector factory.
func (s *Service) WithConnector(dial ConnectorFactory) *Service {
	s.dial = dial
	return s
}

// Run polls the mailbox until ctx is done. Cycle errors are logged, not fatal.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("listener cycle failed", zap.Error(err))
		}
		timer.Reset(interval)
	}
}

// RunOnce performs a single fetch cycle and returns the attachments it saved.
func (s *Service) RunOnce(ctx context.Context) ([]connectors.SavedAttachment, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.dial(provider, s.cfg)
	if err != nil {
		return nil, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.InboxDir, mailConnector, s.log)
	result, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return result.Saved, err
	}

	if s.cfg.MailListenerAutoExport {
		for _, a := range result.Saved {
			if err := s.exportClassified(a); err != nil {
				s.log.Warn("auto export failed", zap.String("path", a.Path), zap.Error(err))
			}
		}
	}

	s.log.Info("listener cycle done",
		zap.String("provider", provider),
		zap.Int("fetched", result.Fetched),
		zap.Int("saved", len(result.Saved)),
	)
	return result.Saved, nil
}

// exportClassified loads a saved attachment, records it in the upload log and
// writes its classified rows next to the other exports.
func (s *Service) exportClassified(a connectors.SavedAttachment) error {
	blob, err := os.ReadFile(a.Path)
	if err != nil {
		return err
	}
	kind, err := pipeline.Detect(blob, a.Name, s.cfg.Dashboards)
	if err != nil {
		return err
	}
	ds, err := pipeline.Load(bytes.NewReader(blob), a.Name, kind, s.cfg.Dashboards)
	if err != nil {
		return err
	}

	rec := internal.UploadRecord{
		ID:        "mail-" + ds.Hash[:16],
		Dashboard: string(kind),
		Source:    a.Name,
		Hash:      ds.Hash,
		Rows:      ds.Len(),
	}
	if existing, err := s.db.GetUpload(rec.ID); err != nil {
		return err
	} else if existing == nil {
		if err := s.db.InsertUpload(rec, ds.CategoryCounts()); err != nil {
			return err
		}
	}

	base := strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
	out := filepath.Join(s.cfg.OutputDir, "listener", base+"_clasificado.xlsx")
	if err := pipeline.SaveWorkbook(out, ds.Sheets()); err != nil {
		return err
	}
	s.log.Info("attachment classified", zap.String("dashboard", string(kind)), zap.Int("rows", ds.Len()), zap.String("output", out))
	return nil
}
