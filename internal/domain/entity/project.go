package entity

import "time"

// Project groups the contracts of one procurement programme
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Reference   string    `json:"reference"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsValidProjectStatus returns true for a known project status
func IsValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusActive, ProjectStatusClosed, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

// Contract is a supplier contract attached to a project
type Contract struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Reference string     `json:"reference"`
	Title     string     `json:"title"`
	Supplier  string     `json:"supplier"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
