package connectors

import (
	"context"

	"go.uber.org/zap"

	"tablero/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *AttachmentStore
	log       *zap.Logger
}

type FetchResult struct {
	Fetched int
	Saved   []SavedAttachment
}

func NewFetchService(db *storage.DB, inboxDir string, connector MailConnector, log *zap.Logger) *FetchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FetchService{
		connector: connector,
		store:     NewAttachmentStore(db, inboxDir),
		log:       log,
	}
}

// FetchAndStore pulls up to max messages from label and keeps their workbook
// attachments. A message that cannot be parsed is logged and skipped.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		saved, err := s.store.Store(msg)
		if err != nil {
			s.log.Warn("skip message", zap.String("provider", msg.Provider), zap.String("message_id", msg.MessageID), zap.Error(err))
			continue
		}
		for _, a := range saved {
			s.log.Info("attachment saved", zap.String("message_id", msg.MessageID), zap.String("name", a.Name), zap.String("path", a.Path))
		}
		result.Saved = append(result.Saved, saved...)
	}

	return result, nil
}
