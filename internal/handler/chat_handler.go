package handler

import (
	"net/http"
	"strconv"

	"github.com/nmanikumar5/Swappio-BE/internal/auth"
	"github.com/nmanikumar5/Swappio-BE/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

type ChatHandler interface {
	GetConversations(c *gin.Context)
	GetMessages(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{
		service: service,
	}
}

// GetConversations returns one row per counterpart, newest pairing first.
func (h *chatHandler) GetConversations(c *gin.Context) {
	userID := auth.IdentityFrom(c)

	entries, err := h.service.ListConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": entries,
	})
}

// GetMessages returns one page of the conversation with the given counterpart.
// Viewing any page marks the whole conversation read for the caller.
func (h *chatHandler) GetMessages(c *gin.Context) {
	userID := auth.IdentityFrom(c)
	counterpartID := c.Param("counterpartId")

	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 64)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), userID, counterpartID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, history)
}
