package callstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voice-campaign-platform/pkg/utils"
)

// PostgresStore persists call records in a single call_records table.
// The merge contract is enforced in SQL so concurrent writers from poll
// goroutines and the webhook handler serialize on the row, not in Go.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("callstore: db is nil")
	}
	s := &PostgresStore{db: db}
	if err := s.Reinit(ctx); err != nil {
		return nil, fmt.Errorf("callstore: ensure schema: %w", err)
	}
	return s, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS call_records (
	call_id          TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	phone_number     TEXT NOT NULL DEFAULT '',
	language         TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	duration_seconds INT NOT NULL DEFAULT 0,
	call_start_time  TEXT NOT NULL DEFAULT '',
	call_end_time    TEXT NOT NULL DEFAULT '',
	cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// terminalSQLList must match IsTerminal; it guards status downgrades inside
// the upsert itself.
const terminalSQLList = `('ended','completed','failed','not-answered','customer-did-not-answer','voicemail','customer-busy','polling-timeout')`

// upsertSQL implements Merge in SQL: empty incoming fields keep the stored
// value, terminal status is monotonic.
var upsertSQL = `
INSERT INTO call_records
	(call_id, name, phone_number, language, status, duration_seconds,
	 call_start_time, call_end_time, cost, error_message, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (call_id) DO UPDATE SET
	name            = CASE WHEN EXCLUDED.name            = '' THEN call_records.name            ELSE EXCLUDED.name            END,
	phone_number    = CASE WHEN EXCLUDED.phone_number    = '' THEN call_records.phone_number    ELSE EXCLUDED.phone_number    END,
	language        = CASE WHEN EXCLUDED.language        = '' THEN call_records.language        ELSE EXCLUDED.language        END,
	status          = CASE
		WHEN EXCLUDED.status = '' THEN call_records.status
		WHEN call_records.status IN ` + terminalSQLList + `
		 AND EXCLUDED.status NOT IN ` + terminalSQLList + ` THEN call_records.status
		ELSE EXCLUDED.status
	END,
	duration_seconds = CASE WHEN EXCLUDED.duration_seconds > 0  THEN EXCLUDED.duration_seconds ELSE call_records.duration_seconds END,
	call_start_time  = CASE WHEN EXCLUDED.call_start_time  = '' THEN call_records.call_start_time ELSE EXCLUDED.call_start_time END,
	call_end_time    = CASE WHEN EXCLUDED.call_end_time    = '' THEN call_records.call_end_time   ELSE EXCLUDED.call_end_time   END,
	cost             = CASE WHEN EXCLUDED.cost             > 0  THEN EXCLUDED.cost              ELSE call_records.cost           END,
	error_message    = CASE WHEN EXCLUDED.error_message    = '' THEN call_records.error_message ELSE EXCLUDED.error_message    END,
	updated_at       = now()`

// provisionalID keys a record before the provider assigns a call id.
func provisionalID(phoneNumber string) string {
	return "pending:" + phoneNumber
}

func (s *PostgresStore) Upsert(ctx context.Context, rec CallRecord) error {
	if rec.CallID == "" || rec.CallID == PendingCallID {
		return ErrCallIDRequired
	}
	return s.exec(ctx, s.db, rec.CallID, rec)
}

func (s *PostgresStore) UpsertByPhone(ctx context.Context, rec CallRecord) error {
	if rec.PhoneNumber == "" {
		return ErrPhoneRequired
	}
	return s.exec(ctx, s.db, provisionalID(rec.PhoneNumber), rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) exec(ctx context.Context, ex execer, key string, rec CallRecord) error {
	_, err := ex.ExecContext(ctx, upsertSQL,
		key, rec.Name, rec.PhoneNumber, rec.Language, rec.Status,
		rec.DurationSeconds, rec.CallStartTime, rec.CallEndTime,
		rec.Cost, rec.ErrorMessage,
	)
	return err
}

// Rekey moves the provisional phone-keyed row under the provider call id.
// If a webhook already created the target row, the provisional fields merge
// into it under the usual contract instead of duplicating.
func (s *PostgresStore) Rekey(ctx context.Context, phoneNumber, callID string) error {
	if callID == "" || callID == PendingCallID {
		return ErrCallIDRequired
	}
	if phoneNumber == "" {
		return ErrPhoneRequired
	}
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		rec, err := scanRecord(tx.QueryRowContext(ctx,
			selectSQL+` WHERE call_id = $1 FOR UPDATE`, provisionalID(phoneNumber)))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM call_records WHERE call_id = $1`, provisionalID(phoneNumber)); err != nil {
			return err
		}
		rec.CallID = callID
		return s.exec(ctx, tx, callID, rec)
	})
}

const selectSQL = `
SELECT call_id, name, phone_number, language, status, duration_seconds,
       call_start_time, call_end_time, cost, error_message, updated_at
FROM call_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (CallRecord, error) {
	var rec CallRecord
	err := row.Scan(
		&rec.CallID, &rec.Name, &rec.PhoneNumber, &rec.Language, &rec.Status,
		&rec.DurationSeconds, &rec.CallStartTime, &rec.CallEndTime,
		&rec.Cost, &rec.ErrorMessage, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *PostgresStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectSQL+` WHERE call_id = $1`, callID))
	if errors.Is(err, sql.ErrNoRows) {
		return CallRecord{}, ErrNotFound
	}
	if err != nil {
		return CallRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL+` ORDER BY phone_number, call_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		// Surface the sentinel, not the internal provisional key.
		if len(rec.CallID) > len("pending:") && rec.CallID[:len("pending:")] == "pending:" {
			rec.CallID = PendingCallID
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Reinit re-ensures the schema. It is the Postgres analog of starting from a
// fresh table when the medium reports corruption; existing rows are kept.
func (s *PostgresStore) Reinit(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	return err
}
