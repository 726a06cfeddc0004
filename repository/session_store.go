package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clinrec/go-session"
	"github.com/uptrace/bun"
)

// SessionEntryModel is the Bun model for persisted session entries.
type SessionEntryModel struct {
	bun.BaseModel `bun:"table:session_store"`

	Key       string    `bun:"entry_key,pk"`
	Value     string    `bun:"entry_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// SessionStore implements session.KeyValueStore using Bun, giving the
// credential triple durable client-local storage.
type SessionStore struct {
	db *bun.DB
}

var _ session.KeyValueStore = (*SessionStore)(nil)

// NewSessionStore creates a new store.
func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSchema creates the backing table when it does not exist.
func (r *SessionStore) CreateSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*SessionEntryModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Get implements session.KeyValueStore.
func (r *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model SessionEntryModel
	err := r.db.NewSelect().
		Model(&model).
		Where("entry_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

// Set implements session.KeyValueStore.
func (r *SessionStore) Set(ctx context.Context, key, value string) error {
	model := &SessionEntryModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (entry_key) DO UPDATE").
		Set("entry_value = EXCLUDED.entry_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Delete implements session.KeyValueStore.
func (r *SessionStore) Delete(ctx context.Context, key string) error {
	_, err := r.db.NewDelete().
		Model((*SessionEntryModel)(nil)).
		Where("entry_key = ?", key).
		Exec(ctx)
	return err
}
