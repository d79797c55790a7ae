package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service/database"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrDuplicateEmail signals that the email is already subscribed.
var ErrDuplicateEmail = errors.New("email already subscribed")

const uniqueViolation = "23505"

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(postgres *database.PostgresService, logger *zap.Logger) *Repository {
	return &Repository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the subscribers table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS subscribers (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure subscribers table: %w", err)
	}
	return nil
}

func (r *Repository) Add(ctx context.Context, name, email, phone string) error {
	query := `INSERT INTO subscribers (name, email, phone) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, name, email, phone); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}

	r.logger.Info("Subscriber added", zap.String("email", email))
	return nil
}

// Remove deletes the matching subscription. Returns false when no row
// matched the name/email pair.
func (r *Repository) Remove(ctx context.Context, name, email string) (bool, error) {
	query := `DELETE FROM subscribers WHERE name = $1 AND email = $2`

	result, err := r.db.ExecContext(ctx, query, name, email)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscriber: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	r.logger.Info("Subscriber removed", zap.String("email", email))
	return true, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Subscriber, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM subscribers
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make([]domain.Subscriber, 0)
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	return subscribers, rows.Err()
}

// Emails returns just the recipient list for digest sending.
func (r *Repository) Emails(ctx context.Context) ([]string, error) {
	subscribers, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	emails := make([]string, len(subscribers))
	for i, s := range subscribers {
		emails[i] = s.Email
	}
	return emails, nil
}
