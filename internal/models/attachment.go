package models

import "time"

const MimePDF = "application/pdf"

type Attachment struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID   string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	FieldKey    string    `gorm:"not null" json:"field_key"`
	Alias       string    `json:"alias"`
	FileName    string    `gorm:"not null" json:"file_name"`
	MimeType    string    `json:"mime_type"`
	DriveFileID string    `gorm:"not null" json:"drive_file_id"`
	URL         string    `json:"url"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// MatchKey is the string compared against annex markers.
func (a *Attachment) MatchKey() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.FileName
}

// AnnexMarker is the token a rendered document carries where the annex
// with the given match key must be spliced in.
func AnnexMarker(key string) string {
	return "[[ANNEXE:" + key + "]]"
}
