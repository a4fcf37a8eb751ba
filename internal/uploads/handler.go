package uploads

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/middleware"
	"github.com/bamika-fc/backend/pkg/response"
	"github.com/bamika-fc/backend/pkg/storage"
	"github.com/bamika-fc/backend/pkg/utils"
)

// Handler serves file uploads during registration intake: player photos go
// to the public photos bucket, birth certificates to the private documents
// bucket.
type Handler struct {
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{s3: s3, logger: logger}
}

// UploadPhoto handles POST /upload/photo. The optional "folder" form field
// selects the photos prefix (players or coaches, default players). Returns
// the public object URL.
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	if !storage.ValidatePhotoType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png and webp images allowed")
		return
	}

	folder := c.PostForm("folder")
	if folder != storage.FolderCoaches {
		folder = storage.FolderPlayers
	}

	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedPhotoTypes[ct]; ok {
			contentType = ct
		}
	}

	key := storage.PhotoKey(folder, utils.RandomFileName(file.Filename))
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	fileURL, err := h.s3.Upload(c.Request.Context(), h.s3.PhotosBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	response.OK(c, gin.H{
		"s3_key":       key,
		"file_url":     fileURL,
		"content_type": contentType,
		"file_size":    file.Size,
		"filename":     file.Filename,
	})
}

// UploadDocument handles POST /upload/document. Stores a birth certificate
// in the private documents bucket under the caller's prefix and returns the
// object key; reads go through GetDocumentURL.
func (h *Handler) UploadDocument(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	if !storage.ValidateDocumentType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only pdf, jpg and png allowed")
		return
	}

	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedDocumentTypes[ct]; ok {
			contentType = ct
		}
	}

	key := storage.DocumentKey(userID.String(), utils.RandomFileName(file.Filename))
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	if _, err := h.s3.Upload(c.Request.Context(), h.s3.DocumentsBucket(), key, contentType, rc, file.Size, false); err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	response.OK(c, gin.H{
		"s3_key":       key,
		"content_type": contentType,
		"file_size":    file.Size,
		"filename":     file.Filename,
	})
}

// DeletePhoto handles DELETE /upload/photo?key=... (admin only). Removes a
// previously uploaded photo object, e.g. after a registration is rejected.
func (h *Handler) DeletePhoto(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "missing key")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}

	if err := h.s3.DeleteObject(c.Request.Context(), h.s3.PhotosBucket(), key); err != nil {
		h.logger.Error("delete object failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to delete file")
		return
	}
	response.OK(c, gin.H{"deleted": key})
}

// GetDocumentURL handles GET /upload/document-url?key=... and returns a
// short-lived pre-signed download URL for a private document.
func (h *Handler) GetDocumentURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "missing key")
		return
	}

	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.DocumentsBucket(), key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{"url": url})
}
