package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"unimart/internal/events"
	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/security"
)

type ListingService struct {
	users    repository.AccountStore
	listings repository.ListingStore
	events   EventPublisher
	log      zerolog.Logger
}

func NewListingService(store repository.Store, publisher EventPublisher, log zerolog.Logger) *ListingService {
	return &ListingService{
		users:    store.Users(),
		listings: store.Listings(),
		events:   publisher,
		log:      log,
	}
}

// ListingInput carries the fields of a new listing. Price is a pointer so a
// zero price can be told apart from an absent one.
type ListingInput struct {
	Name            string
	Price           *float64
	RollNo          string
	CollegeName     string
	GoogleDriveLink string
	Description     string
	Dept            string
	PhoneNo         string
}

// ListingPatch is a partial update. Nil fields are left unchanged.
type ListingPatch struct {
	Name            *string
	Price           *float64
	RollNo          *string
	CollegeName     *string
	GoogleDriveLink *string
	Description     *string
	Dept            *string
	PhoneNo         *string
}

type textField struct {
	name  string
	value *string
}

func (in *ListingInput) text() []textField {
	return []textField{
		{"name", &in.Name},
		{"rollno", &in.RollNo},
		{"collegename", &in.CollegeName},
		{"googledrivelink", &in.GoogleDriveLink},
		{"description", &in.Description},
		{"dept", &in.Dept},
		{"phoneno", &in.PhoneNo},
	}
}

func (in *ListingInput) validate() error {
	fields := in.text()
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
	}

	if in.Name == "" {
		return missing("name")
	}
	if in.Price == nil {
		return missing("price")
	}
	if *in.Price < 0 {
		return ErrInvalidPrice
	}
	for _, f := range fields[1:] {
		if *f.value == "" {
			return missing(f.name)
		}
	}
	return nil
}

func (p ListingPatch) apply(l *models.Listing) error {
	text := []struct {
		name string
		from *string
		to   *string
	}{
		{"name", p.Name, &l.Name},
		{"rollno", p.RollNo, &l.RollNo},
		{"collegename", p.CollegeName, &l.CollegeName},
		{"googledrivelink", p.GoogleDriveLink, &l.GoogleDriveLink},
		{"description", p.Description, &l.Description},
		{"dept", p.Dept, &l.Dept},
		{"phoneno", p.PhoneNo, &l.PhoneNo},
	}
	for _, f := range text {
		if f.from == nil {
			continue
		}
		v := strings.TrimSpace(*f.from)
		if v == "" {
			return missing(f.name)
		}
		*f.to = v
	}

	if p.Price != nil {
		if *p.Price < 0 {
			return ErrInvalidPrice
		}
		l.Price = *p.Price
	}
	return nil
}

func (s *ListingService) publish(ctx context.Context, typ events.Type, l models.Listing) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.Event{
		Type:        typ,
		ListingID:   l.ID,
		ListingName: l.Name,
		OwnerID:     l.OwnerID,
		State:       string(l.State()),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("listing_id", l.ID).Str("event", string(typ)).Msg("publish listing event failed")
	}
}

func (s *ListingService) owner(ctx context.Context, ownerID string) (models.Account, error) {
	account, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("load owner: %w", err)
	}
	return account, nil
}

// Create appends a new Pending listing to ownerID's listings.
func (s *ListingService) Create(ctx context.Context, ownerID string, input ListingInput) (models.Listing, error) {
	if err := input.validate(); err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		OwnerID:         ownerID,
		Name:            input.Name,
		Price:           *input.Price,
		RollNo:          input.RollNo,
		CollegeName:     input.CollegeName,
		GoogleDriveLink: input.GoogleDriveLink,
		Description:     input.Description,
		Dept:            input.Dept,
		PhoneNo:         input.PhoneNo,
	}
	listing.MarkPending()

	created, err := s.listings.Append(ctx, listing)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Listing{}, err
		}
		return models.Listing{}, fmt.Errorf("append listing: %w", err)
	}

	s.publish(ctx, events.ListingSubmitted, created)
	return created, nil
}

// ownedListing loads listingID and checks it belongs to ownerID.
func (s *ListingService) ownedListing(ctx context.Context, ownerID string, listingID string) (models.Listing, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return models.Listing{}, err
		}
		return models.Listing{}, fmt.Errorf("load listing: %w", err)
	}
	if listing.OwnerID != ownerID {
		return models.Listing{}, repository.ErrListingNotFound
	}
	return listing, nil
}

func (s *ListingService) Get(ctx context.Context, ownerID string, listingID string) (models.OwnedListing, error) {
	owner, err := s.owner(ctx, ownerID)
	if err != nil {
		return models.OwnedListing{}, err
	}
	listing, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return models.OwnedListing{}, err
	}
	return models.OwnedListing{Listing: listing, OwnerEmail: owner.Email}, nil
}

func (s *ListingService) ListMine(ctx context.Context, ownerID string) ([]models.OwnedListing, error) {
	owner, err := s.owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	listings, err := s.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	out := make([]models.OwnedListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, models.OwnedListing{Listing: l, OwnerEmail: owner.Email})
	}
	return out, nil
}

// Edit applies patch and sends the listing back to review.
func (s *ListingService) Edit(ctx context.Context, ownerID string, listingID string, patch ListingPatch) (models.Listing, error) {
	if _, err := s.owner(ctx, ownerID); err != nil {
		return models.Listing{}, err
	}
	listing, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return models.Listing{}, err
	}

	if err := patch.apply(&listing); err != nil {
		return models.Listing{}, err
	}
	listing.MarkPending()

	return s.save(ctx, listing, events.ListingUpdated)
}

func (s *ListingService) save(ctx context.Context, listing models.Listing, typ events.Type) (models.Listing, error) {
	listing.Touch()
	if err := s.listings.Replace(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return models.Listing{}, err
		}
		return models.Listing{}, fmt.Errorf("save listing: %w", err)
	}
	s.publish(ctx, typ, listing)
	return listing, nil
}

// Approve moves a Pending listing to Approved. When email is non-empty it
// must be the owner's.
func (s *ListingService) Approve(ctx context.Context, listingID string, email string) (models.OwnedListing, error) {
	return s.decide(ctx, listingID, email, (*models.Listing).Approve, events.ListingApproved)
}

// Reject moves a Pending listing to Rejected. When email is non-empty it
// must be the owner's.
func (s *ListingService) Reject(ctx context.Context, listingID string, email string) (models.OwnedListing, error) {
	return s.decide(ctx, listingID, email, (*models.Listing).Reject, events.ListingRejected)
}

func (s *ListingService) decide(
	ctx context.Context,
	listingID string,
	email string,
	transition func(*models.Listing) error,
	typ events.Type,
) (models.OwnedListing, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return models.OwnedListing{}, err
		}
		return models.OwnedListing{}, fmt.Errorf("load listing: %w", err)
	}

	owner, err := s.owner(ctx, listing.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.OwnedListing{}, repository.ErrListingNotFound
		}
		return models.OwnedListing{}, err
	}
	if email = strings.TrimSpace(email); email != "" && !strings.EqualFold(email, owner.Email) {
		return models.OwnedListing{}, repository.ErrListingNotFound
	}

	before := listing.State()
	if err := transition(&listing); err != nil {
		return models.OwnedListing{}, err
	}
	if listing.State() != before {
		if listing, err = s.save(ctx, listing, typ); err != nil {
			return models.OwnedListing{}, err
		}
	}

	return models.OwnedListing{Listing: listing, OwnerEmail: owner.Email}, nil
}

// Delete removes a listing after checking the owner's password. The password
// is checked before the listing is looked up.
func (s *ListingService) Delete(ctx context.Context, ownerID string, listingID string, password string) error {
	owner, err := s.owner(ctx, ownerID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(password, owner.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	listing, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, ownerID, listingID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("delete listing: %w", err)
	}

	s.publish(ctx, events.ListingDeleted, listing)
	return nil
}

// ListApprovedPublic returns approved listings whose name contains
// nameFilter, ignoring case. An empty result is ErrNoListings.
func (s *ListingService) ListApprovedPublic(ctx context.Context, nameFilter string) ([]models.OwnedListing, error) {
	listings, err := s.listings.Search(ctx, repository.ListingQuery{
		ApprovedOnly: true,
		NameContains: strings.TrimSpace(nameFilter),
	})
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, ErrNoListings
	}
	return listings, nil
}

func (s *ListingService) ListPendingForAdmin(ctx context.Context) ([]models.OwnedListing, error) {
	listings, err := s.listings.Search(ctx, repository.ListingQuery{State: models.StatePending})
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return listings, nil
}
