package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/storage"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// UploadsHandler streams stored complaint images.
type UploadsHandler struct {
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(blobs storage.BlobStore, logger *zap.Logger) *UploadsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadsHandler{blobs: blobs, logger: logger}
}

// Serve GET /uploads/:filename.
func (h *UploadsHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("filename")
	if err := storage.ValidateKey(key); err != nil {
		return apperrors.NewValidationError("invalid file name", map[string]any{"filename": key})
	}
	reader, err := h.blobs.Open(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundMessage("File not found", map[string]any{"filename": key})
		}
		h.logger.Error("open upload failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, storage.ContentTypeForKey(key))
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.SendStream(reader)
}
