package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"tablero/internal"
	"tablero/internal/config"
)

type Connector struct {
	service *gmail.Service
	query   string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for _, req := range [][2]string{
		{"GMAIL_CLIENT_ID", cfg.GmailClientID},
		{"GMAIL_CLIENT_SECRET", cfg.GmailClientSecret},
		{"GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken},
	} {
		if err := cfg.Require(req[0], req[1]); err != nil {
			return nil, err
		}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	ctx := context.Background()
	tokens := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	return NewWithOptions(ctx, cfg.GmailQuery, option.WithTokenSource(tokens))
}

// NewWithOptions builds a connector over an arbitrary client configuration,
// e.g. a custom endpoint and HTTP client.
func NewWithOptions(ctx context.Context, query string, opts ...option.ClientOption) (*Connector, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Connector{service: svc, query: query}, nil
}

// FetchInbox lists up to max messages under label (narrowed by the configured query)
// and downloads each one in raw form. Headers are read from the raw message itself.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	call := c.service.Users.Messages.List("me").LabelIds(label)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	if c.query != "" {
		call = call.Q(c.query)
	}
	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list %s: %w", label, err)
	}

	out := make([]internal.FetchedMailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}
		if msg.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, toMessage(ref.Id, msg.InternalDate, raw))
	}
	return out, nil
}

func toMessage(id string, internalDate int64, raw []byte) internal.FetchedMailMessage {
	m := internal.FetchedMailMessage{
		Provider:   "gmail",
		MessageID:  id,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}

	var date string
	if env, err := enmime.ReadEnvelope(bytes.NewReader(raw)); err == nil {
		m.Subject = env.GetHeader("Subject")
		m.From = env.GetHeader("From")
		if v := strings.TrimSpace(env.GetHeader("Message-ID")); v != "" {
			m.MessageID = v
		}
		date = env.GetHeader("Date")
	}

	if internalDate > 0 {
		m.ReceivedAt = time.UnixMilli(internalDate).UTC().Format(time.RFC3339)
	} else if t, err := parseMailDate(date); err == nil {
		m.ReceivedAt = t.UTC().Format(time.RFC3339)
	}
	return m
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}

func parseMailDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}
