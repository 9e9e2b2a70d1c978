package connectors

import (
	"context"
	"fmt"
	"strings"

	"tablero/internal"
	"tablero/internal/config"
	gmailconnector "tablero/internal/connectors/gmail"
	imapconnector "tablero/internal/connectors/imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

// New builds the connector for provider ("gmail" or "imap").
func New(provider string, cfg config.Config) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		c, err := gmailconnector.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "imap":
		c, err := imapconnector.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
