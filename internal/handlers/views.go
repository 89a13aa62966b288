package handlers

import (
	"time"

	"unimart/internal/models"
)

// listingView keeps the field names clients of the marketplace already use.
type listingView struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	RollNo          string    `json:"rollno"`
	CollegeName     string    `json:"collegename"`
	GoogleDriveLink string    `json:"googledrivelink"`
	Description     string    `json:"description"`
	Dept            string    `json:"dept"`
	PhoneNo         string    `json:"phoneno"`
	ApprovedStatus  bool      `json:"approved_status"`
	ApprovedString  string    `json:"approved_string"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (h HandlerSet) listingView(l models.Listing, email string) listingView {
	return listingView{
		ID:              l.ID,
		Name:            l.Name,
		Price:           l.Price,
		RollNo:          l.RollNo,
		CollegeName:     l.CollegeName,
		GoogleDriveLink: l.GoogleDriveLink,
		Description:     l.Description,
		Dept:            l.Dept,
		PhoneNo:         l.PhoneNo,
		ApprovedStatus:  l.ApprovedStatus,
		ApprovedString:  string(l.ApprovedString),
		PhotoURL:        h.photos.URL(l.PhotoKey),
		Email:           email,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (h HandlerSet) ownedViews(listings []models.OwnedListing) []listingView {
	out := make([]listingView, 0, len(listings))
	for _, l := range listings {
		out = append(out, h.listingView(l.Listing, l.OwnerEmail))
	}
	return out
}

type profileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
