package model

import (
	"github.com/google/uuid"
)

type QAStatus string

const (
	QAStatusActive        QAStatus = "active"
	QAStatusPendingReview QAStatus = "pending_review"
	QAStatusDisabled      QAStatus = "disabled"
)

type QASource string

const (
	QASourceManual     QASource = "manual"
	QASourceTransfer   QASource = "transfer"
	QASourceEngineSync QASource = "engine_sync"
	QASourceImport     QASource = "import"
)

// QARecord is a team-owned question/answer pair. DatasetID holds the remote
// dataset this record is currently materialized into, empty when unassigned.
// PreviousQuestion keeps the pre-edit question text so forward sync can
// locate stale remote chunks after a question edit.
type QARecord struct {
	BaseModel
	TeamID          uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	Question        string    `gorm:"type:text;not null" json:"question"`
	Answer          string    `gorm:"type:text;not null" json:"answer"`
	QuestionSummary string    `gorm:"size:200" json:"question_summary"`
	AnswerSummary   string    `gorm:"size:200" json:"answer_summary"`
	Version         int       `gorm:"default:1;not null" json:"version"`
	Status          QAStatus  `gorm:"size:50;default:'active';not null" json:"status"`
	Source          QASource  `gorm:"size:50;default:'manual';not null" json:"source"`
	DatasetID       string    `gorm:"size:100;index" json:"dataset_id"`
	SourceMessageID string    `gorm:"size:36;index" json:"source_message_id,omitempty"`
	IsModified      bool      `gorm:"default:false;not null" json:"is_modified"`
	PreviousQuestion string   `gorm:"type:text" json:"previous_question,omitempty"`
	EditedBy        uuid.UUID `gorm:"type:uuid" json:"edited_by"`
}

func (QARecord) TableName() string {
	return "qa_records"
}
