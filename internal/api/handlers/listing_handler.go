package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/api/middleware"
	"locmaison/backend/internal/services"
	"locmaison/backend/internal/storage"
)

// ListingHandler handles listing requests under /api/maisons.
type ListingHandler struct {
	listingService services.IListingService
	media          storage.IMediaStorage
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingService services.IListingService, media storage.IMediaStorage) *ListingHandler {
	return &ListingHandler{listingService: listingService, media: media}
}

// List handles GET /api/maisons. Supports optional localisation and
// type query filters; localisation matches as a case-insensitive
// substring.
func (h *ListingHandler) List(c *gin.Context) {
	var filter services.ListingFilter
	if loc := strings.TrimSpace(c.Query("localisation")); loc != "" {
		filter.Location = &loc
	}
	if cat := strings.TrimSpace(c.Query("type")); cat != "" {
		filter.Category = &cat
	}

	listings, err := h.listingService.Search(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listings"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// Mine handles GET /api/maisons/mes-maisons.
func (h *ListingHandler) Mine(c *gin.Context) {
	owner := middleware.CurrentOwner(c)
	listings, err := h.listingService.FindByOwner(c.Request.Context(), owner.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listings"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// Get handles GET /api/maisons/:id.
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.listingService.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Create handles POST /api/maisons. The body is multipart:
// text fields plus zero or more files under the repeatable "media"
// field.
func (h *ListingHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	location := strings.TrimSpace(c.PostForm("location"))
	category := strings.TrimSpace(c.PostForm("type"))
	priceRaw := strings.TrimSpace(c.PostForm("price"))
	if title == "" || location == "" || category == "" || priceRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, location, type and price are required"})
		return
	}

	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}

	images, err := h.saveFiles(form.File["media"])
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store media files"})
		return
	}

	owner := middleware.CurrentOwner(c)
	listing, err := h.listingService.Create(c.Request.Context(), owner.ID, services.ListingInput{
		Title:       title,
		Location:    location,
		Category:    category,
		Price:       price,
		Description: c.PostForm("description"),
		Images:      images,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing type"})
		case errors.Is(err, services.ErrNegativePrice):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing created", "listing": listing})
}

// Update handles PUT /api/maisons/:id. Only fields present in the
// multipart form change; "remove_images" values name stored files to
// drop and "media" files are appended.
func (h *ListingHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	var patch services.ListingPatch
	if v, ok := formValue(form, "title"); ok {
		patch.Title = &v
	}
	if v, ok := formValue(form, "location"); ok {
		patch.Location = &v
	}
	if v, ok := formValue(form, "type"); ok {
		patch.Category = &v
	}
	if v, ok := formValue(form, "price"); ok {
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
			return
		}
		patch.Price = &price
	}
	if v, ok := formValue(form, "description"); ok {
		patch.Description = &v
	}
	patch.RemoveImages = form.Value["remove_images"]

	patch.AddImages, err = h.saveFiles(form.File["media"])
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store media files"})
		return
	}

	owner := middleware.CurrentOwner(c)
	listing, err := h.listingService.Update(c.Request.Context(), id, owner.ID, patch)
	if err != nil {
		h.writeOwnedError(c, err, "Failed to update listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing updated", "listing": listing})
}

// Delete handles DELETE /api/maisons/:id.
func (h *ListingHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	owner := middleware.CurrentOwner(c)
	if err := h.listingService.Delete(c.Request.Context(), id, owner.ID); err != nil {
		h.writeOwnedError(c, err, "Failed to delete listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing deleted"})
}

func (h *ListingHandler) saveFiles(files []*multipart.FileHeader) ([]string, error) {
	var names []string
	for _, f := range files {
		name, err := h.media.Save(f)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (h *ListingHandler) writeOwnedError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this listing"})
	case errors.Is(err, services.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing type"})
	case errors.Is(err, services.ErrNegativePrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// formValue reports whether the field was sent at all, so an empty
// string can clear a field while an absent one leaves it untouched.
func formValue(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
