package model

import (
	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusProcessing TicketStatus = "processing"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusVerified   TicketStatus = "verified"
)

// Ticket tracks a low-confidence answer routed into the human-review
// workflow. Each ticket references the pending_review QARecord created by
// the transfer.
type Ticket struct {
	BaseModel
	TeamID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"team_id"`
	QARecordID uuid.UUID    `gorm:"type:uuid;not null;index" json:"qa_record_id"`
	MessageID  string       `gorm:"size:36;index" json:"message_id"`
	Status     TicketStatus `gorm:"size:50;default:'pending';not null" json:"status"`
	CreatedBy  uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	AssigneeID uuid.UUID    `gorm:"type:uuid" json:"assignee_id"`
}

func (Ticket) TableName() string {
	return "tickets"
}
