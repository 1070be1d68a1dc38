package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/salonbook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record claims key. It reports false when the key was already claimed by an
// earlier delivery.
func (r *Repository) Record(ctx context.Context, key, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (dedupe_key, event_type)
		VALUES ($1, $2)
	`, key, eventType)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return false, nil
	}
	return false, err
}

// Release gives a claimed key back so a redelivery is processed again.
func (r *Repository) Release(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE dedupe_key = $1`, key)
	return err
}
