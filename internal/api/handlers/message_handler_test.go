package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/api/handlers"
	"locmaison/backend/internal/models"
	"locmaison/backend/internal/services"
)

func setupMessageRouter(svc services.IMessageService, owner *models.Owner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewMessageHandler(svc)
	r := gin.New()
	r.POST("/api/messages", h.CreateFromClient)
	r.POST("/api/messages/envoyer", h.Send)
	r.GET("/api/messages/client/:email", h.ClientThread)
	if owner != nil {
		r.GET("/api/messages", asOwner(owner), h.Inbox)
		r.PUT("/api/messages/:id/reponse", asOwner(owner), h.Reply)
		r.DELETE("/api/messages/:id", asOwner(owner), h.Delete)
	}
	return r
}

func TestMessageHandler_CreateFromClient(t *testing.T) {
	listingID := primitive.NewObjectID()
	msg := &models.Message{ID: primitive.NewObjectID(), ListingID: listingID, Status: models.MessageStatusPending}

	svc := new(MockMessageService)
	svc.On("CreateFromClient", mock.Anything, listingID, "Client", "client@example.com", "0600000000", "Available?").
		Return(msg, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, gin.H{
		"name": "Client", "email": "client@example.com", "phone": "0600000000",
		"message": "Available?", "maisonId": listingID.Hex(),
	}))
	setupMessageRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_CreateFromClient_Invalid(t *testing.T) {
	svc := new(MockMessageService)
	r := setupMessageRouter(svc, nil)

	// Every field is required
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, gin.H{
		"name": "Client", "email": "client@example.com",
	})))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing listing
	missing := primitive.NewObjectID()
	svc.On("CreateFromClient", mock.Anything, missing, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/messages", jsonBody(t, gin.H{
		"name": "Client", "email": "client@example.com", "phone": "06",
		"message": "Hello", "maisonId": missing.Hex(),
	})))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageHandler_Send(t *testing.T) {
	listingID := primitive.NewObjectID()
	msg := &models.Message{ID: primitive.NewObjectID(), ListingID: listingID, From: models.MessageFromOwner}

	svc := new(MockMessageService)
	svc.On("Send", mock.Anything, listingID, "client@example.com", "Follow-up", "owner", "").
		Return(msg, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/envoyer", jsonBody(t, gin.H{
		"email": "client@example.com", "message": "Follow-up",
		"maisonId": listingID.Hex(), "from": "owner",
	}))
	setupMessageRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_Send_BadFrom(t *testing.T) {
	listingID := primitive.NewObjectID()
	svc := new(MockMessageService)
	svc.On("Send", mock.Anything, listingID, mock.Anything, mock.Anything, "robot", mock.Anything).
		Return(nil, services.ErrInvalidFrom)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/envoyer", jsonBody(t, gin.H{
		"email": "client@example.com", "message": "Hi",
		"maisonId": listingID.Hex(), "from": "robot",
	}))
	setupMessageRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_Inbox(t *testing.T) {
	owner := &models.Owner{ID: primitive.NewObjectID()}
	svc := new(MockMessageService)
	svc.On("ListForOwner", mock.Anything, owner.ID).Return([]models.MessageWithListing{
		{Message: models.Message{ID: primitive.NewObjectID(), Body: "Hello"}, ListingTitle: "Flat"},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	setupMessageRouter(svc, owner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flat")
}

func TestMessageHandler_ClientThread(t *testing.T) {
	svc := new(MockMessageService)
	svc.On("ThreadForClient", mock.Anything, "client@example.com").
		Return([]models.MessageWithListing{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages/client/client@example.com", nil)
	setupMessageRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_Reply(t *testing.T) {
	owner := &models.Owner{ID: primitive.NewObjectID()}
	id := primitive.NewObjectID()
	replied := &models.Message{ID: id, Reply: "Yes", Status: models.MessageStatusProcessed}

	svc := new(MockMessageService)
	svc.On("Reply", mock.Anything, id, owner.ID, "Yes").Return(replied, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/messages/"+id.Hex()+"/reponse", jsonBody(t, gin.H{"reply": "Yes"}))
	setupMessageRouter(svc, owner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "processed")
	svc.AssertExpectations(t)
}

func TestMessageHandler_Reply_Errors(t *testing.T) {
	owner := &models.Owner{ID: primitive.NewObjectID()}
	id := primitive.NewObjectID()

	// Empty reply never reaches the service
	svc := new(MockMessageService)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/messages/"+id.Hex()+"/reponse", jsonBody(t, gin.H{"reply": ""}))
	setupMessageRouter(svc, owner).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not found", mongo.ErrNoDocuments, http.StatusNotFound},
		{"not owner", services.ErrNotOwner, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockMessageService)
			svc.On("Reply", mock.Anything, id, owner.ID, "Yes").Return(nil, tc.serviceErr)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/messages/"+id.Hex()+"/reponse", jsonBody(t, gin.H{"reply": "Yes"}))
			setupMessageRouter(svc, owner).ServeHTTP(w, req)
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestMessageHandler_Delete(t *testing.T) {
	owner := &models.Owner{ID: primitive.NewObjectID()}
	id := primitive.NewObjectID()

	svc := new(MockMessageService)
	svc.On("Delete", mock.Anything, id, owner.ID).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/messages/"+id.Hex(), nil)
	setupMessageRouter(svc, owner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
