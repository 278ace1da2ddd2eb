package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"DIP-EASY/internal/services"

	"github.com/gin-gonic/gin"
)

// readFormFile returns the named multipart file with its header.
func readFormFile(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no %q file uploaded", services.ErrInvalidInput, field)
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return content, header, nil
}
