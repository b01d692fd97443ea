package repos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

// OutboxRecord is an event written in the same transaction as the state change
// it describes, waiting to be relayed.
type OutboxRecord struct {
	ID        int64   `db:"id"`
	EventID   string  `db:"event_id"`
	Type      string  `db:"event_type"`
	Key       string  `db:"event_key"`
	Payload   string  `db:"payload"`
	CreatedAt string  `db:"created_at"`
	SentAt    *string `db:"sent_at"`
}

type OutboxRepo struct{ db *sqlx.DB }

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo { return &OutboxRepo{db: db} }

func (r *OutboxRepo) Insert(ctx context.Context, eventID, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ex := executor(ctx, r.db)
	_, err = ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO outbox(event_id, event_type, event_key, payload, created_at)
		VALUES(?, ?, ?, ?, ?)`), eventID, eventType, key, string(data), now())
	return err
}

func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	ex := executor(ctx, r.db)
	out := []OutboxRecord{}
	err := sqlx.SelectContext(ctx, ex, &out, ex.Rebind(`
		SELECT id, event_id, event_type, event_key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`), limit)
	return out, err
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id int64) error {
	ex := executor(ctx, r.db)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE outbox SET sent_at = ? WHERE id = ?`), now(), id)
	return err
}
