package models

import "time"

type GenerationFormat string

const (
	FormatDOCX GenerationFormat = "docx"
	FormatPDF  GenerationFormat = "pdf"
)

type GenerationStatus string

const (
	StatusPending GenerationStatus = "pending"
	StatusSuccess GenerationStatus = "success"
	StatusError   GenerationStatus = "error"
)

type Generation struct {
	ID            string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID     string           `gorm:"type:varchar(36);not null;index" json:"product_id"`
	TemplateID    string           `gorm:"type:varchar(36);not null;index" json:"template_id"`
	Format        GenerationFormat `gorm:"type:varchar(8);not null" json:"format"`
	Status        GenerationStatus `gorm:"type:varchar(16);not null" json:"status"`
	DriveFileID   string           `json:"drive_file_id"`
	ErrorMessage  *string          `json:"error_message"`
	RenderOutcome Outcome          `gorm:"type:varchar(16)" json:"render_outcome"`
	MergeOutcome  Outcome          `gorm:"type:varchar(16)" json:"merge_outcome"`
	InitiatedAt   time.Time        `gorm:"not null" json:"initiated_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (Generation) TableName() string {
	return "generations"
}

func (g *Generation) IsTerminal() bool {
	return g.Status == StatusSuccess || g.Status == StatusError
}
