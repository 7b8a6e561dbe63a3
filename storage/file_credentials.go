package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCredentialStore keeps one session_<user>.json file per user.
// Writes go through a temp file and a rename, so readers see either the
// old or the new record.
type FileCredentialStore struct {
	dir string
	log *slog.Logger
	now func() time.Time
}

type fileRecord struct {
	UserID  string    `json:"user_id"`
	Payload []byte    `json:"payload"`
	SavedAt time.Time `json:"saved_at"`
}

func NewFileCredentialStore(dir string, log *slog.Logger) (*FileCredentialStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileCredentialStore{dir: dir, log: log.With("session_dir", dir), now: time.Now}, nil
}

func (s *FileCredentialStore) Load(_ context.Context, userID domain.UserID) (domain.Credential, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Credential file unreadable", "user", userID, "error", err)
		}
		return nil, errors.ErrCredentialNotFound
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil || record.UserID != string(userID) || len(record.Payload) == 0 {
		s.log.Warn("Corrupt credential file ignored", "user", userID, "error", err)
		return nil, errors.ErrCredentialNotFound
	}
	return record.Payload, nil
}

func (s *FileCredentialStore) Save(_ context.Context, userID domain.UserID, credential domain.Credential) error {
	data, err := json.Marshal(fileRecord{UserID: string(userID), Payload: credential, SavedAt: s.now().UTC()})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.dir, s.filename(userID), data, 0o600)
}

func (s *FileCredentialStore) Delete(_ context.Context, userID domain.UserID) error {
	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileCredentialStore) filename(userID domain.UserID) string {
	return "session_" + url.PathEscape(string(userID)) + ".json"
}

func (s *FileCredentialStore) path(userID domain.UserID) string {
	return filepath.Join(s.dir, s.filename(userID))
}

// writeFileAtomic writes data to a temporary file in dir and renames it into place.
func writeFileAtomic(dir, filename string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filename+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(dir, filename))
}
