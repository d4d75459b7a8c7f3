package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/api/middleware"
	"locmaison/backend/internal/services"
)

// MessageHandler handles messaging requests under /api/messages.
type MessageHandler struct {
	messageService services.IMessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService services.IMessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type clientMessageRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	ListingID string `json:"maisonId"`
}

type sendMessageRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	ListingID string `json:"maisonId"`
	From      string `json:"from"`
}

type replyRequest struct {
	Reply string `json:"reply"`
}

// CreateFromClient handles POST /api/messages. Public: a visitor asks
// about a listing.
func (h *MessageHandler) CreateFromClient(c *gin.Context) {
	var req clientMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" ||
		strings.TrimSpace(req.ListingID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	msg, err := h.messageService.CreateFromClient(c.Request.Context(), listingID, req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent to the owner", "data": msg})
}

// Send handles POST /api/messages/envoyer. Public: either side of a
// conversation appends a message by declaring the from field.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" ||
		strings.TrimSpace(req.ListingID) == "" || strings.TrimSpace(req.From) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, message, maisonId and from are required"})
		return
	}

	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), listingID, req.Email, req.Message, req.From, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrInvalidFrom):
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be client or owner"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
}

// Inbox handles GET /api/messages. Returns every message on the
// caller's listings, newest first, each tagged with its listing title.
func (h *MessageHandler) Inbox(c *gin.Context) {
	owner := middleware.CurrentOwner(c)
	messages, err := h.messageService.ListForOwner(c.Request.Context(), owner.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// ClientThread handles GET /api/messages/client/:email. Returns the
// full conversation history for one client address, oldest first.
func (h *MessageHandler) ClientThread(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	messages, err := h.messageService.ThreadForClient(c.Request.Context(), email)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Reply handles PUT /api/messages/:id/reponse. Stores the owner's
// reply and marks the message processed.
func (h *MessageHandler) Reply(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Reply) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reply is required"})
		return
	}

	owner := middleware.CurrentOwner(c)
	msg, err := h.messageService.Reply(c.Request.Context(), id, owner.ID, req.Reply)
	if err != nil {
		h.writeOwnedError(c, err, "Failed to send reply")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reply sent", "data": msg})
}

// Delete handles DELETE /api/messages/:id.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	owner := middleware.CurrentOwner(c)
	if err := h.messageService.Delete(c.Request.Context(), id, owner.ID); err != nil {
		h.writeOwnedError(c, err, "Failed to delete message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message deleted"})
}

func (h *MessageHandler) writeOwnedError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own the listing for this message"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
