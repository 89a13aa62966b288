package repository

import (
	"context"
	"errors"
	"strings"

	"unimart/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrListingNotFound = errors.New("listing not found")
)

// AccountStore persists one kind of account. Emails are unique per store.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}

// ListingQuery selects listings across all owners. Zero values match
// everything.
type ListingQuery struct {
	ApprovedOnly bool
	State        models.ApprovalState
	NameContains string
}

// ListingStore persists listings owned by user accounts. Listing ids are
// unique across owners.
type ListingStore interface {
	// Append assigns the listing an id and stores it under listing.OwnerID.
	Append(ctx context.Context, listing models.Listing) (models.Listing, error)
	Get(ctx context.Context, listingID string) (models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
	// Replace overwrites the stored listing matching listing.OwnerID and listing.ID.
	Replace(ctx context.Context, listing models.Listing) error
	Delete(ctx context.Context, ownerID string, listingID string) error
	Search(ctx context.Context, query ListingQuery) ([]models.OwnedListing, error)
}

type Store interface {
	Users() AccountStore
	Admins() AccountStore
	Listings() ListingStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Matches reports whether listing satisfies query. Backends that cannot push
// a filter down use it to post-filter.
func (q ListingQuery) Matches(listing models.Listing) bool {
	if q.ApprovedOnly && !listing.ApprovedStatus {
		return false
	}
	if q.State != "" && listing.ApprovedString != q.State {
		return false
	}
	if q.NameContains != "" && !strings.Contains(strings.ToLower(listing.Name), strings.ToLower(q.NameContains)) {
		return false
	}
	return true
}
