package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"unimart/internal/models"
)

func (h HandlerSet) PendingProducts(c *gin.Context) {
	listings, err := h.listings.ListPendingForAdmin(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ownedViews(listings))
}

// decisionRequest.Email is optional; when sent it must name the owner.
type decisionRequest struct {
	Email string `json:"email"`
}

func (h HandlerSet) ApproveProduct(c *gin.Context) {
	h.decide(c, h.listings.Approve, "Product approved successfully")
}

func (h HandlerSet) RejectProduct(c *gin.Context) {
	h.decide(c, h.listings.Reject, "Product rejected successfully")
}

func (h HandlerSet) decide(
	c *gin.Context,
	decision func(ctx context.Context, listingID string, email string) (models.OwnedListing, error),
	message string,
) {
	var req decisionRequest
	if !bind(c, &req) {
		return
	}

	listing, err := decision(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"product": h.listingView(listing.Listing, listing.OwnerEmail),
	})
}
