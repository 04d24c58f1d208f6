// Package repository implements data persistence using PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rksstudio/detailbot/internal/domain"
)

// LeadRepository implements domain.LeadRepository using PostgreSQL.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Create inserts a new lead record. Leads are append-only.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	servicesJSON, err := json.Marshal(lead.Services)
	if err != nil {
		return fmt.Errorf("failed to marshal services: %w", err)
	}

	query := `
		INSERT INTO leads (
			id, user_id, username, name, car,
			services, when_text, when_at, contact, phone,
			temperature, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err = r.pool.Exec(ctx, query,
		lead.ID,
		lead.UserID,
		lead.Username,
		lead.Name,
		lead.Car,
		servicesJSON,
		lead.WhenText,
		lead.WhenAt,
		lead.Contact,
		lead.Phone,
		lead.Temperature,
		lead.Source,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// Count returns the total number of captured leads.
func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}
