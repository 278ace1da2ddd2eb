package handlers

import (
	"context"
	"net/http"

	"DIP-EASY/internal/models"

	"github.com/gin-gonic/gin"
)

type AttachmentService interface {
	Upload(ctx context.Context, productID, fieldKey, filename, mimeType string, content []byte) (*models.Attachment, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type AttachmentHandler struct {
	attachments AttachmentService
}

func NewAttachmentHandler(attachments AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload expects product_id, field_key and file form fields.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	productID := c.PostForm("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	content, header, err := readFormFile(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	attachment, err := h.attachments.Upload(c.Request.Context(), productID, c.PostForm("field_key"),
		header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (h *AttachmentHandler) ListByProduct(c *gin.Context) {
	attachments, err := h.attachments.ListByProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	c.JSON(http.StatusOK, attachments)
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	if err := h.attachments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}
