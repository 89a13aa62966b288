package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unimart/internal/media/sniffer"
	"unimart/internal/middleware"
	"unimart/internal/service"
)

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	if !h.photos.Enabled() {
		h.fail(c, service.ErrPhotosDisabled)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxPhotoBytes+(1<<20))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	listing, err := h.photos.Upload(c.Request.Context(), service.PhotoInput{
		OwnerID:     middleware.SubjectID(c),
		ListingID:   c.Param("id"),
		File:        file,
		ContentType: sniffer.MimeType(header.Header),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Photo uploaded successfully",
		"product": h.listingView(listing, ""),
	})
}
