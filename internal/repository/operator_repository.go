package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rksstudio/detailbot/internal/domain"
)

// OperatorRepository implements domain.OperatorRepository using PostgreSQL.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// Upsert adds an operator, or refreshes username and name for an existing one.
func (r *OperatorRepository) Upsert(ctx context.Context, op *domain.Operator) error {
	query := `
		INSERT INTO operators (user_id, username, name, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			name = EXCLUDED.name`

	_, err := r.pool.Exec(ctx, query, op.UserID, op.Username, op.Name, op.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert operator: %w", err)
	}
	return nil
}

// Remove deletes an operator registration. Removing an unknown operator
// returns ErrNotFound.
func (r *OperatorRepository) Remove(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operators WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to remove operator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all registered operators ordered by registration time.
func (r *OperatorRepository) List(ctx context.Context) ([]*domain.Operator, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, name, added_at
		FROM operators
		ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	var operators []*domain.Operator
	for rows.Next() {
		var op domain.Operator
		if err := rows.Scan(&op.UserID, &op.Username, &op.Name, &op.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operators: %w", err)
	}

	return operators, nil
}
