package domain

import "time"

// Operator is a business-side recipient of finished leads.
type Operator struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// NewOperator creates an operator record for a Telegram user.
func NewOperator(userID int64, username, name string) *Operator {
	return &Operator{
		UserID:   userID,
		Username: username,
		Name:     name,
		AddedAt:  time.Now().UTC(),
	}
}
