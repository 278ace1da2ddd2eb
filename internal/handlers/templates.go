package handlers

import (
	"context"
	"net/http"
	"strconv"

	"DIP-EASY/internal/models"

	"github.com/gin-gonic/gin"
)

type TemplateService interface {
	Upload(ctx context.Context, name, filename string, content []byte) (*models.Template, error)
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context, page, limit int) ([]models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

type TemplateHandler struct {
	templates TemplateService
}

func NewTemplateHandler(templates TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type TemplateListResponse struct {
	Templates []models.Template `json:"templates"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
}

// Upload registers a new version of a template from the "template" form file.
// The optional "name" field groups versions; it defaults to the file name.
func (h *TemplateHandler) Upload(c *gin.Context) {
	content, header, err := readFormFile(c, "template")
	if err != nil {
		respondError(c, err)
		return
	}

	tpl, err := h.templates.Upload(c.Request.Context(), c.PostForm("name"), header.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *TemplateHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	templates, err := h.templates.ListTemplates(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	c.JSON(http.StatusOK, TemplateListResponse{Templates: templates, Page: page, Limit: limit})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
