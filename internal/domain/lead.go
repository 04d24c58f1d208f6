// Package domain contains the core business entities and interfaces.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Temperature classifies how ready a lead is to buy.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// ContactMethod is the channel the client asked to be contacted on.
type ContactMethod string

const (
	ContactCall     ContactMethod = "call"
	ContactWhatsApp ContactMethod = "whatsapp"
	ContactTelegram ContactMethod = "telegram"
)

// Lead is the finalized output of a completed questionnaire.
// It is created once when the session completes and never mutated.
type Lead struct {
	ID          uuid.UUID     `json:"id"`
	UserID      int64         `json:"user_id"`
	Username    string        `json:"username,omitempty"`
	Name        string        `json:"name"`
	Car         string        `json:"car"`
	Services    []LeadService `json:"services"`
	WhenText    string        `json:"when_text"`
	WhenAt      *time.Time    `json:"when_at,omitempty"`
	Contact     ContactMethod `json:"contact"`
	Phone       string        `json:"phone,omitempty"` // normalized, empty for chat-only leads
	Temperature Temperature   `json:"temperature"`
	Source      string        `json:"source"`
	CreatedAt   time.Time     `json:"created_at"`
}

// LeadService is one selected service with its follow-up answers,
// in catalog declaration order.
type LeadService struct {
	Code    string      `json:"code"`
	Label   string      `json:"label"`
	Answers []SubAnswer `json:"answers,omitempty"`
}

// SubAnswer pairs a follow-up question with the recorded answer.
type SubAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NewLead creates a lead shell with identity and timestamps filled in.
func NewLead(userID int64, username string) *Lead {
	return &Lead{
		ID:        uuid.New(),
		UserID:    userID,
		Username:  username,
		Source:    "telegram_bot",
		CreatedAt: time.Now().UTC(),
	}
}

// HasPhone reports whether a phone number was captured.
func (l *Lead) HasPhone() bool {
	return l.Phone != ""
}

// ServiceCodes returns the selected service codes in stored order.
func (l *Lead) ServiceCodes() []string {
	codes := make([]string, 0, len(l.Services))
	for _, s := range l.Services {
		codes = append(codes, s.Code)
	}
	return codes
}
