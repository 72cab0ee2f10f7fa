package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/chat"
	"canteen-backend/internal/models"
)

type ChatHandler struct {
	Chat *chat.Service
}

// senderFor maps the principal to a chat side.
func senderFor(c *gin.Context) string {
	if principal(c).IsSuperAdmin() {
		return models.ChatFromAdmin
	}
	return models.ChatFromTenant
}

func (h *ChatHandler) ListThreads(c *gin.Context) {
	threads, err := h.Chat.ListThreads()
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, threads)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.Chat.GetMessages(c.Param("theaterId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, messages)
}

// Send accepts either a JSON text message or a multipart image upload.
func (h *ChatHandler) Send(c *gin.Context) {
	tenantID := c.Param("theaterId")
	sender := senderFor(c)

	if file, err := c.FormFile("image"); err == nil {
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
		msg, err := h.Chat.SendImage(tenantID, sender, file.Filename, data)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondCreated(c, msg)
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text or image is required")
		return
	}
	msg, err := h.Chat.SendText(tenantID, sender, req.Text)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	if err := h.Chat.MarkRead(c.Param("theaterId"), senderFor(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"read": true})
}
