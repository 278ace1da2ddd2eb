package handlers

import (
	"context"
	"net/http"

	"DIP-EASY/internal/services"

	"github.com/gin-gonic/gin"
)

// TenantHeader carries the caller identity set by the upstream gateway.
const TenantHeader = "X-User-ID"

type DriveSettingsService interface {
	Status(ctx context.Context, tenant string) (*services.DriveStatus, error)
	SetCredentials(ctx context.Context, tenant string, credentialsJSON []byte) error
	SetRootFolder(ctx context.Context, tenant, folderID string) error
}

type DriveHandler struct {
	settings DriveSettingsService
}

func NewDriveHandler(settings DriveSettingsService) *DriveHandler {
	return &DriveHandler{settings: settings}
}

type RootFolderRequest struct {
	FolderID string `json:"folder_id" binding:"required"`
}

// RequireTenant rejects requests without a caller identity.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(TenantHeader) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": TenantHeader + " header is required"})
			return
		}
		c.Next()
	}
}

func (h *DriveHandler) Status(c *gin.Context) {
	status, err := h.settings.Status(c.Request.Context(), c.GetHeader(TenantHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SetCredentials takes the service-account JSON key as the raw request body.
func (h *DriveHandler) SetCredentials(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if err := h.settings.SetCredentials(c.Request.Context(), c.GetHeader(TenantHeader), body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Drive credentials saved"})
}

func (h *DriveHandler) SetRootFolder(c *gin.Context) {
	var req RootFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_id is required"})
		return
	}
	if err := h.settings.SetRootFolder(c.Request.Context(), c.GetHeader(TenantHeader), req.FolderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Drive root folder saved"})
}
