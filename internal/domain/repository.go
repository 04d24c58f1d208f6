package domain

import "context"

// LeadRepository defines the interface for lead persistence.
// Leads are append-only; there is no update path.
type LeadRepository interface {
	// Create inserts a finished lead record.
	Create(ctx context.Context, lead *Lead) error

	// Count returns the total number of stored leads.
	Count(ctx context.Context) (int64, error)
}

// OperatorRepository defines the interface for the operator registry.
type OperatorRepository interface {
	// Upsert adds an operator or refreshes an existing registration.
	Upsert(ctx context.Context, op *Operator) error

	// Remove deletes an operator by Telegram user ID.
	Remove(ctx context.Context, userID int64) error

	// List returns all registered operators.
	List(ctx context.Context) ([]*Operator, error)
}
