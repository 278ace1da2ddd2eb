package handlers

import (
	"context"
	"net/http"

	"DIP-EASY/internal/models"

	"github.com/gin-gonic/gin"
)

type GenerationService interface {
	Create(ctx context.Context, templateID, productID string) (*models.Generation, error)
	Finalize(ctx context.Context, id, filename string, content []byte) (*models.Generation, error)
	Validate(ctx context.Context, id string) (*models.Generation, error)
	DeleteGeneration(ctx context.Context, id string) error
	GetGeneration(ctx context.Context, id string) (*models.Generation, error)
	ListGenerations(ctx context.Context, productID string) ([]models.Generation, error)
	ListEvents(ctx context.Context, id string) ([]models.GenerationEvent, error)
}

type GenerationHandler struct {
	generations GenerationService
}

func NewGenerationHandler(generations GenerationService) *GenerationHandler {
	return &GenerationHandler{generations: generations}
}

type CreateGenerationRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
	ProductID  string `json:"product_id" binding:"required"`
}

type EventsResponse struct {
	GenerationID string                   `json:"generation_id"`
	Events       []models.GenerationEvent `json:"events"`
	Total        int                      `json:"total"`
}

func (h *GenerationHandler) Create(c *gin.Context) {
	var req CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template_id and product_id are required"})
		return
	}

	gen, err := h.generations.Create(c.Request.Context(), req.TemplateID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gen)
}

func (h *GenerationHandler) List(c *gin.Context) {
	generations, err := h.generations.ListGenerations(c.Request.Context(), c.Query("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if generations == nil {
		generations = []models.Generation{}
	}
	c.JSON(http.StatusOK, generations)
}

func (h *GenerationHandler) Get(c *gin.Context) {
	gen, err := h.generations.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

// Finalize replaces the generated file with the uploaded "file".
func (h *GenerationHandler) Finalize(c *gin.Context) {
	content, header, err := readFormFile(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	gen, err := h.generations.Finalize(c.Request.Context(), c.Param("id"), header.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

func (h *GenerationHandler) Validate(c *gin.Context) {
	gen, err := h.generations.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

func (h *GenerationHandler) Delete(c *gin.Context) {
	if err := h.generations.DeleteGeneration(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Generation deleted successfully"})
}

// Events returns the lifecycle history of a generation, oldest first.
func (h *GenerationHandler) Events(c *gin.Context) {
	id := c.Param("id")
	events, err := h.generations.ListEvents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.GenerationEvent{}
	}
	c.JSON(http.StatusOK, EventsResponse{GenerationID: id, Events: events, Total: len(events)})
}
