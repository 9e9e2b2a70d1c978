package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"tablero/internal"
	"tablero/internal/config"
)

type account struct {
	addr     string
	host     string
	tls      bool
	user     string
	password string
}

// Connector reads unseen messages from one IMAP account. Messages are fetched with
// BODY.PEEK so they stay unseen unless markSeen is set.
type Connector struct {
	acct     account
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for _, req := range [][2]string{
		{"IMAP_HOST", cfg.IMAPHost},
		{"IMAP_USER", cfg.IMAPUser},
		{"IMAP_PASSWORD", cfg.IMAPPassword},
	} {
		if err := cfg.Require(req[0], req[1]); err != nil {
			return nil, err
		}
	}
	return &Connector{
		acct: account{
			addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
			host:     cfg.IMAPHost,
			tls:      cfg.IMAPSecure,
			user:     cfg.IMAPUser,
			password: cfg.IMAPPassword,
		},
		markSeen: cfg.IMAPMarkSeen,
	}, nil
}

// FetchInbox returns up to max unseen messages of mailbox label, newest last.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	client, err := c.acct.dial()
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", c.acct.addr, err)
	}
	defer client.Logout()

	stop := context.AfterFunc(ctx, func() { _ = client.Terminate() })
	defer stop()

	if err := client.Login(c.acct.user, c.acct.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := client.Select(label, false); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", label, err)
	}

	set, n, err := unseen(client, max)
	if err != nil || n == 0 {
		return nil, err
	}

	out, fetched, err := fetchRaw(client, set, n)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if c.markSeen && !fetched.Empty() {
		flags := []interface{}{imap.SeenFlag}
		if err := client.Store(fetched, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			return nil, fmt.Errorf("imap mark seen: %w", err)
		}
	}
	return out, nil
}

func (a account) dial() (*imapclient.Client, error) {
	if a.tls {
		return imapclient.DialTLS(a.addr, &tls.Config{ServerName: a.host})
	}
	return imapclient.Dial(a.addr)
}

// unseen keeps the newest max sequence numbers when max > 0.
func unseen(client *imapclient.Client, max int) (*imap.SeqSet, int, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := client.Search(criteria)
	if err != nil {
		return nil, 0, fmt.Errorf("imap search: %w", err)
	}
	if max > 0 && len(ids) > max {
		ids = ids[len(ids)-max:]
	}
	set := new(imap.SeqSet)
	set.AddNum(ids...)
	return set, len(ids), nil
}

// fetchRaw drains the whole fetch before returning; the connection cannot take
// another command while messages are still streaming.
func fetchRaw(client *imapclient.Client, set *imap.SeqSet, n int) ([]internal.FetchedMailMessage, *imap.SeqSet, error) {
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, n)
	done := make(chan error, 1)
	go func() { done <- client.Fetch(set, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, n)
	fetched := new(imap.SeqSet)
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			readErr = err
			continue
		}
		out = append(out, toMessage(msg, raw))
		fetched.AddNum(msg.SeqNum)
	}

	if err := <-done; err != nil {
		return nil, nil, fmt.Errorf("imap fetch: %w", err)
	}
	if readErr != nil {
		return nil, nil, readErr
	}
	return out, fetched, nil
}

func toMessage(msg *imap.Message, raw []byte) internal.FetchedMailMessage {
	m := internal.FetchedMailMessage{
		Provider:   "imap",
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if env := msg.Envelope; env != nil {
		m.MessageID = env.MessageId
		m.Subject = env.Subject
		m.From = formatAddresses(env.From)
	}
	if m.MessageID == "" {
		m.MessageID = fmt.Sprintf("imap-%d", msg.Uid)
	}
	if !msg.InternalDate.IsZero() {
		m.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return m
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(a.MailboxName+"@"+a.HostName, "@")
		if a.PersonalName != "" {
			email = fmt.Sprintf("%s <%s>", a.PersonalName, email)
		}
		parts = append(parts, email)
	}
	return strings.Join(parts, ", ")
}
