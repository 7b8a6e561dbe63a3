package repositories

import (
	"context"
	"encoding/base64"
	"fmt"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const credentialPrefix = "credential:"

// CredentialRecord is a stored credential with its metadata.
type CredentialRecord struct {
	UserID     domain.UserID
	Credential domain.Credential
	SavedAt    time.Time
}

// CredentialRepository stores one credential per user in BadgerDB.
// Each operation runs in its own transaction, so a Load never observes a
// partially written record.
type CredentialRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewCredentialRepository(db *badger.DB, log *slog.Logger) *CredentialRepository {
	return &CredentialRepository{db: db, log: log, now: time.Now}
}

// Load returns the user's credential. Missing and unreadable records both
// yield errors.ErrCredentialNotFound.
func (r *CredentialRepository) Load(_ context.Context, userID domain.UserID) (domain.Credential, error) {
	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credentialKey(userID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrCredentialNotFound
	}
	if err != nil {
		r.log.Warn("Credential read failed", "user", userID, "error", err)
		return nil, errors.ErrCredentialNotFound
	}

	record, err := decodeRecord(data)
	if err != nil || record.UserID != userID {
		r.log.Warn("Corrupt credential record ignored", "user", userID, "error", err)
		return nil, errors.ErrCredentialNotFound
	}
	return record.Credential, nil
}

// Save overwrites the user's credential.
func (r *CredentialRepository) Save(_ context.Context, userID domain.UserID, credential domain.Credential) error {
	data, err := encodeRecord(CredentialRecord{UserID: userID, Credential: credential, SavedAt: r.now()})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credentialKey(userID), data)
	})
}

func (r *CredentialRepository) Delete(_ context.Context, userID domain.UserID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(credentialKey(userID))
	})
}

// List returns every readable record. Corrupt ones are skipped.
func (r *CredentialRepository) List(_ context.Context) ([]CredentialRecord, error) {
	var records []CredentialRecord
	prefix := []byte(credentialPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				record, err := decodeRecord(v)
				if err != nil {
					r.log.Warn("Skipping corrupt credential", "key", string(item.Key()), "error", err)
					return nil
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during credential scan: %w", err)
	}
	return records, nil
}

func credentialKey(userID domain.UserID) []byte {
	return []byte(credentialPrefix + string(userID))
}

func encodeRecord(record CredentialRecord) ([]byte, error) {
	envelope, err := structpb.NewStruct(map[string]any{
		"user_id":  string(record.UserID),
		"payload":  base64.StdEncoding.EncodeToString(record.Credential),
		"saved_at": record.SavedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(envelope)
}

func decodeRecord(data []byte) (CredentialRecord, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return CredentialRecord{}, err
	}
	fields := envelope.GetFields()

	userID := strings.TrimSpace(fields["user_id"].GetStringValue())
	if userID == "" {
		return CredentialRecord{}, fmt.Errorf("missing user_id")
	}
	payload, err := base64.StdEncoding.DecodeString(fields["payload"].GetStringValue())
	if err != nil {
		return CredentialRecord{}, fmt.Errorf("payload: %w", err)
	}
	if len(payload) == 0 {
		return CredentialRecord{}, fmt.Errorf("empty payload")
	}
	savedAt, err := time.Parse(time.RFC3339Nano, fields["saved_at"].GetStringValue())
	if err != nil {
		return CredentialRecord{}, fmt.Errorf("saved_at: %w", err)
	}
	return CredentialRecord{UserID: domain.UserID(userID), Credential: payload, SavedAt: savedAt}, nil
}
