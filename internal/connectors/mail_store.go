package connectors

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jhillyerd/enmime"

	"tablero/internal"
	"tablero/internal/storage"
	"tablero/internal/util"
)

// AttachmentStore writes the spreadsheet attachments of fetched messages into
// the inbox directory, once per (provider, message, attachment).
type AttachmentStore struct {
	db       *storage.DB
	inboxDir string
}

type SavedAttachment struct {
	Name string
	Path string
}

func NewAttachmentStore(db *storage.DB, inboxDir string) *AttachmentStore {
	return &AttachmentStore{db: db, inboxDir: inboxDir}
}

func (s *AttachmentStore) Store(msg internal.FetchedMailMessage) ([]SavedAttachment, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.inboxDir, 0o755); err != nil {
		return nil, err
	}

	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	var saved []SavedAttachment
	for _, att := range parts {
		filename := strings.TrimSpace(att.FileName)
		if !IsWorkbook(filename) || len(att.Content) == 0 {
			continue
		}

		seen, err := s.db.MailSeen(msg.Provider, msg.MessageID, filename)
		if err != nil {
			return saved, err
		}
		if seen {
			continue
		}

		hashBytes := sha256.Sum256(att.Content)
		hash := hex.EncodeToString(hashBytes[:])
		path := filepath.Join(s.inboxDir, hash[:12]+"_"+util.SanitizeFilename(filename))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, att.Content, 0o644); err != nil {
				return saved, err
			}
		}

		if err := s.db.InsertMail(msg, filename, path); err != nil {
			return saved, err
		}
		saved = append(saved, SavedAttachment{Name: filename, Path: path})
	}
	return saved, nil
}

func IsWorkbook(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

type InboxFile struct {
	Name    string
	Size    int64
	ModTime string
}

// ListInbox returns the workbooks in dir, newest first. A missing dir is empty.
func ListInbox(dir string) ([]InboxFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []InboxFile
	for _, e := range entries {
		if e.IsDir() || !IsWorkbook(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, InboxFile{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC().Format("2006-01-02 15:04:05"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ModTime != out[j].ModTime {
			return out[i].ModTime > out[j].ModTime
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// InboxPath resolves name inside dir, refusing anything that is not a plain
// workbook file name.
func InboxPath(dir, name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || !IsWorkbook(name) {
		return "", false
	}
	return filepath.Join(dir, name), true
}
