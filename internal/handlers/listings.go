package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"unimart/internal/middleware"
	"unimart/internal/service"
)

// priceValue accepts a JSON number or a string holding one.
type priceValue float64

func (p *priceValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = priceValue(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &invalidFieldError{field: "price"}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return &invalidFieldError{field: "price"}
	}
	*p = priceValue(n)
	return nil
}

func (p *priceValue) float() *float64 {
	if p == nil {
		return nil
	}
	v := float64(*p)
	return &v
}

type sellRequest struct {
	Name            string      `json:"name" binding:"required"`
	Price           *priceValue `json:"price" binding:"required"`
	RollNo          string      `json:"rollno" binding:"required"`
	CollegeName     string      `json:"collegename" binding:"required"`
	GoogleDriveLink string      `json:"googledrivelink" binding:"required"`
	Description     string      `json:"description" binding:"required"`
	Dept            string      `json:"dept" binding:"required"`
	PhoneNo         string      `json:"phoneno" binding:"required"`
}

func (h HandlerSet) SellProduct(c *gin.Context) {
	var req sellRequest
	if !bind(c, &req) {
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), middleware.SubjectID(c), service.ListingInput{
		Name:            req.Name,
		Price:           req.Price.float(),
		RollNo:          req.RollNo,
		CollegeName:     req.CollegeName,
		GoogleDriveLink: req.GoogleDriveLink,
		Description:     req.Description,
		Dept:            req.Dept,
		PhoneNo:         req.PhoneNo,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added successfully",
		"product": h.listingView(listing, ""),
	})
}

func (h HandlerSet) MyListings(c *gin.Context) {
	listings, err := h.listings.ListMine(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ownedViews(listings))
}

func (h HandlerSet) MyListing(c *gin.Context) {
	listing, err := h.listings.Get(c.Request.Context(), middleware.SubjectID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.listingView(listing.Listing, listing.OwnerEmail))
}

// updateRequest fields are pointers: a field present in the body is applied
// even when it holds a zero value.
type updateRequest struct {
	Name            *string     `json:"name"`
	Price           *priceValue `json:"price"`
	RollNo          *string     `json:"rollno"`
	CollegeName     *string     `json:"collegename"`
	GoogleDriveLink *string     `json:"googledrivelink"`
	Description     *string     `json:"description"`
	Dept            *string     `json:"dept"`
	PhoneNo         *string     `json:"phoneno"`
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	var req updateRequest
	if !bind(c, &req) {
		return
	}

	listing, err := h.listings.Edit(c.Request.Context(), middleware.SubjectID(c), c.Param("id"), service.ListingPatch{
		Name:            req.Name,
		Price:           req.Price.float(),
		RollNo:          req.RollNo,
		CollegeName:     req.CollegeName,
		GoogleDriveLink: req.GoogleDriveLink,
		Description:     req.Description,
		Dept:            req.Dept,
		PhoneNo:         req.PhoneNo,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": h.listingView(listing, ""),
	})
}

type deleteRequest struct {
	ProductID string `json:"productId"`
	Password  string `json:"password"`
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	var req deleteRequest
	if !bind(c, &req) {
		return
	}

	err := h.listings.Delete(c.Request.Context(), middleware.SubjectID(c), req.ProductID, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Product deleted successfully")
}

func (h HandlerSet) Products(c *gin.Context) {
	listings, err := h.listings.ListApprovedPublic(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ownedViews(listings))
}
