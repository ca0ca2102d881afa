package model

import (
	"github.com/google/uuid"
)

type Team struct {
	BaseModel
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:500" json:"description"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamDataset binds a team to one remote engine dataset. A team may bind
// several datasets; the pair (team, dataset) is unique.
type TeamDataset struct {
	BaseModel
	TeamID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_team_datasets" json:"team_id"`
	DatasetID     string    `gorm:"size:100;not null;uniqueIndex:uq_team_datasets" json:"dataset_id"`
	DatasetName   string    `gorm:"size:200" json:"dataset_name"`
	DocumentCount int       `gorm:"default:0;not null" json:"document_count"`
	ChunkCount    int       `gorm:"default:0;not null" json:"chunk_count"`
}

func (TeamDataset) TableName() string {
	return "team_datasets"
}

// TeamConfig binds a team to its remote chat assistant (1:1).
type TeamConfig struct {
	BaseModel
	TeamID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"team_id"`
	AssistantID   string    `gorm:"size:100" json:"assistant_id"`
	AssistantName string    `gorm:"size:200" json:"assistant_name"`
}

func (TeamConfig) TableName() string {
	return "team_configs"
}
