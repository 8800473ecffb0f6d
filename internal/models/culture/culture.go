package culture

import (
	"time"

	"github.com/google/uuid"
)

// Culture клеточная культура пользователя.
type Culture struct {
	ID             uuid.UUID `json:"id" yaml:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" yaml:"user_id" db:"user_id"`
	Name           string    `json:"name" yaml:"name" db:"name"`
	CellType       string    `json:"cell_type" yaml:"cell_type" db:"cell_type"`
	StartDate      time.Time `json:"start_date" yaml:"start_date" db:"start_date"`
	PassageNumber  int       `json:"passage_number" yaml:"passage_number" db:"passage_number"`
	LastActionDate time.Time `json:"last_action_date" yaml:"last_action_date" db:"last_action_date"`
	Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty" db:"notes"`
	Status         Status    `json:"status" yaml:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

type Status string

const StatusActive Status = "active"
const StatusPaused Status = "paused"
const StatusTerminated Status = "terminated"

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusTerminated:
		return true
	}
	return false
}

// Summary краткие сведения о культуре для ответов по задачам.
type Summary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Status Status    `json:"status"`
}

func (c *Culture) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, Status: c.Status}
}

func (c *Culture) Clone() *Culture {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
