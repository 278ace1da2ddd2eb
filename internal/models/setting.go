package models

import (
	"fmt"
	"time"
)

const (
	SettingDriveCredentials = "drive_credentials"
	SettingDriveRootFolder  = "drive_root_folder_id"
)

type Setting struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"-"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// TenantKey scopes a setting key to a tenant. The empty tenant is the global scope.
func TenantKey(base, tenant string) string {
	if tenant == "" {
		return base
	}
	return fmt.Sprintf("%s_%s", base, tenant)
}
