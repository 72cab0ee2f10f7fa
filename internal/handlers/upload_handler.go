package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/storage"
)

type UploadHandler struct {
	Store storage.Store
}

// Upload stores one multipart file through the storage strategy and
// returns its public URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	f, err := file.Open()
	if err != nil {
		respondErr(c, apperr.Wrap(apperr.Internal, "open upload", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondErr(c, apperr.Wrap(apperr.Internal, "read upload", err))
		return
	}
	url, err := h.Store.Save(file.Filename, data)
	if err != nil {
		respondErr(c, apperr.Wrap(apperr.Internal, "store upload", err))
		return
	}
	respondCreated(c, gin.H{"url": url})
}
