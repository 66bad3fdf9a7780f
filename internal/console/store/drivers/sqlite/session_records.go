package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/console/internal/console/domain"
)

type sessionRecordsRepo struct {
	db *sql.DB
}

func (r *sessionRecordsRepo) GetSessionRecord(ctx context.Context, name string) (domain.SessionRecord, error) {
	rec := domain.SessionRecord{Name: name}

	row := r.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM session_records WHERE name = ?`,
		name,
	)
	if err := row.Scan(&rec.Payload, &rec.UpdatedAt); err != nil {
		return domain.SessionRecord{}, mapNotFound(err)
	}

	return rec, nil
}

func (r *sessionRecordsRepo) PutSessionRecord(ctx context.Context, rec domain.SessionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_records (name, payload, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		     payload = excluded.payload,
		     updated_at = excluded.updated_at`,
		rec.Name, rec.Payload, rec.UpdatedAt.UTC(),
	)
	return err
}

func (r *sessionRecordsRepo) DeleteSessionRecord(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_records WHERE name = ?`, name)
	return err
}
