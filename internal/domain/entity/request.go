package entity

import (
	"time"

	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

// ExemptionRequest is a tax-exemption request raised against a contract.
// CurrentStage holds the pipeline stage name exactly as stored.
type ExemptionRequest struct {
	ID           int64                `json:"id"`
	ContractID   int64                `json:"contract_id"`
	Reference    string               `json:"reference"`
	Title        string               `json:"title"`
	TaxCategory  taxation.TaxCategory `json:"tax_category"`
	CurrentStage string               `json:"current_stage"`
	Items        []taxation.LineItem  `json:"items"`
	Summary      taxation.Summary     `json:"summary"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// StageHistory is the audit trail of a request's stage changes
type StageHistory struct {
	ID            int64     `json:"id"`
	RequestID     int64     `json:"request_id"`
	PreviousStage string    `json:"previous_stage"`
	NewStage      string    `json:"new_stage"`
	Action        string    `json:"action"`
	Actor         string    `json:"actor,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
