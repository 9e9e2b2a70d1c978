package connectors

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablero/internal"
	"tablero/internal/config"
	"tablero/internal/storage"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func rawMail(t *testing.T, attachments map[string][]byte) []byte {
	t.Helper()
	b := enmime.Builder().
		From("PMO", "pmo@banco.test").
		To("Tablero", "tablero@banco.test").
		Subject("Export semanal").
		Date(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)).
		Text([]byte("adjunto el export"))
	for name, blob := range attachments {
		ct := xlsxType
		if filepath.Ext(name) != ".xlsx" {
			ct = "text/plain"
		}
		b = b.AddAttachment(blob, ct, name)
	}
	part, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, part.Encode(&buf))
	return buf.Bytes()
}

type fakeConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	calls    int
}

func (f *fakeConnector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAttachmentStore(t *testing.T) {
	db := openDB(t)
	dir := filepath.Join(t.TempDir(), "inbox")
	store := NewAttachmentStore(db, dir)

	msg := internal.FetchedMailMessage{
		Provider:  "imap",
		MessageID: "<1@banco>",
		Raw: rawMail(t, map[string][]byte{
			"export.xlsx": []byte("PK-fake-workbook"),
			"notas.txt":   []byte("ignorar"),
		}),
	}

	saved, err := store.Store(msg)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "export.xlsx", saved[0].Name)
	assert.Equal(t, dir, filepath.Dir(saved[0].Path))

	blob, err := os.ReadFile(saved[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "PK-fake-workbook", string(blob))

	again, err := store.Store(msg)
	require.NoError(t, err)
	assert.Empty(t, again, "already stored attachments are skipped")

	files, err := ListInbox(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Base(saved[0].Path), files[0].Name)
}

func TestFetchService(t *testing.T) {
	db := openDB(t)
	dir := t.TempDir()
	fake := &fakeConnector{messages: []internal.FetchedMailMessage{
		{Provider: "gmail", MessageID: "a", Raw: rawMail(t, map[string][]byte{"proyectos.xlsx": []byte("uno")})},
		{Provider: "gmail", MessageID: "b", Raw: rawMail(t, nil)},
	}}

	svc := NewFetchService(db, dir, fake, nil)
	res, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, "proyectos.xlsx", res.Saved[0].Name)

	fake.err = errors.New("buzón no disponible")
	_, err = svc.FetchAndStore(context.Background(), "INBOX", 10)
	assert.EqualError(t, err, "buzón no disponible")
}

func TestListInboxMissingDir(t *testing.T) {
	files, err := ListInbox(filepath.Join(t.TempDir(), "nada"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestInboxPath(t *testing.T) {
	path, ok := InboxPath("/data/inbox", "abc_export.xlsx")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/data/inbox", "abc_export.xlsx"), path)

	for _, name := range []string{"", "../secreto.xlsx", "a/b.xlsx", "notas.txt"} {
		_, ok := InboxPath("/data/inbox", name)
		assert.False(t, ok, name)
	}
}

func TestNewConnector(t *testing.T) {
	_, err := New("pop3", config.Config{})
	assert.EqualError(t, err, "unsupported mail provider: pop3")

	_, err = New(" IMAP ", config.Config{})
	assert.ErrorContains(t, err, "IMAP_HOST")
}
