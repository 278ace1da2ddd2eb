package models

import (
	"time"

	"gorm.io/datatypes"
)

type Template struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(191);not null;uniqueIndex:idx_template_name_version,priority:1" json:"name"`
	Version      string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_template_name_version,priority:2" json:"version"`
	DriveFileID  string         `gorm:"not null" json:"drive_file_id"`
	ThumbnailURL string         `json:"thumbnail_url"`
	TOC          datatypes.JSON `gorm:"column:toc" json:"toc"`
	StyleConfig  datatypes.JSON `json:"style_config"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// ApplyDefaults fills the structured metadata blobs with empty collections.
func (t *Template) ApplyDefaults() {
	if len(t.TOC) == 0 {
		t.TOC = datatypes.JSON("[]")
	}
	if len(t.StyleConfig) == 0 {
		t.StyleConfig = datatypes.JSON("{}")
	}
}
