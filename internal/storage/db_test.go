package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablero/internal"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUploads(t *testing.T) {
	db := openTest(t)

	first := internal.UploadRecord{ID: "a", Dashboard: "proyectos", Source: "export.xlsx", Hash: "h1", Rows: 3}
	require.NoError(t, db.InsertUpload(first, []internal.CategoryCount{
		{Category: internal.CategoryProject, Count: 1},
		{Category: internal.CategoryStabilization, Count: 2},
	}))
	second := internal.UploadRecord{ID: "b", Dashboard: "migracion", Source: "objetos.xlsx", Hash: "h2", Rows: 1}
	require.NoError(t, db.InsertUpload(second, nil))

	list, err := db.ListUploads(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "export.xlsx", list[1].Source)
	assert.NotEmpty(t, list[1].CreatedAt)

	counts, err := db.CategoryCounts("a")
	require.NoError(t, err)
	assert.Equal(t, []internal.CategoryCount{
		{Category: internal.CategoryStabilization, Count: 2},
		{Category: internal.CategoryProject, Count: 1},
	}, counts)

	got, err := db.GetUpload("b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Rows)

	missing, err := db.GetUpload("zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, db.InsertUpload(first, nil), "ids are unique")
}

func TestMails(t *testing.T) {
	db := openTest(t)
	msg := internal.FetchedMailMessage{Provider: "imap", MessageID: "INBOX:7", Subject: "Proyectos", From: "pmo@banco"}

	seen, err := db.MailSeen("imap", "INBOX:7", "export.xlsx")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, db.InsertMail(msg, "export.xlsx", "/tmp/x.xlsx"))
	require.NoError(t, db.InsertMail(msg, "export.xlsx", "/tmp/x.xlsx"))

	seen, err = db.MailSeen("imap", "INBOX:7", "export.xlsx")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = db.MailSeen("imap", "INBOX:7", "otro.xlsx")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tablero.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.InsertUpload(internal.UploadRecord{ID: "x", Dashboard: "agosto", Source: "s", Hash: "h"}, nil))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	list, err := db.ListUploads(5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
