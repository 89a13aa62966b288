package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"unimart/internal/ids"
	"unimart/internal/models"
	"unimart/internal/repository"
)

// Store keeps everything in process memory. It backs tests and the
// "memory" store driver.
type Store struct {
	mu       sync.RWMutex
	users    *accounts
	admins   *accounts
	listings *listings
}

func New() *Store {
	s := &Store{}
	s.users = &accounts{mu: &s.mu, kind: models.AccountKindUser, byID: map[string]models.Account{}, byEmail: map[string]string{}}
	s.admins = &accounts{mu: &s.mu, kind: models.AccountKindAdmin, byID: map[string]models.Account{}, byEmail: map[string]string{}}
	s.listings = &listings{mu: &s.mu, users: s.users}
	return s
}

func (s *Store) Users() repository.AccountStore    { return s.users }
func (s *Store) Admins() repository.AccountStore   { return s.admins }
func (s *Store) Listings() repository.ListingStore { return s.listings }

func (s *Store) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

type accounts struct {
	mu      *sync.RWMutex
	kind    models.AccountKind
	byID    map[string]models.Account
	byEmail map[string]string
}

func (a *accounts) Create(ctx context.Context, account models.Account) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := a.byEmail[key]; exists {
		return models.Account{}, repository.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	account.ID = ids.New()
	account.Kind = a.kind
	account.CreatedAt = now
	account.UpdatedAt = now

	a.byID[account.ID] = account
	a.byEmail[key] = account.ID
	return account, nil
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.byEmail[strings.ToLower(email)]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return a.byID[id], nil
}

func (a *accounts) GetByID(ctx context.Context, id string) (models.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.getLocked(id)
}

func (a *accounts) getLocked(id string) (models.Account, error) {
	account, ok := a.byID[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return account, nil
}

func (a *accounts) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	account, ok := a.byID[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now().UTC()
	a.byID[id] = account
	return nil
}

type listings struct {
	mu    *sync.RWMutex
	users *accounts
	items []models.Listing
}

func (l *listings) Append(ctx context.Context, listing models.Listing) (models.Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.users.getLocked(listing.OwnerID); err != nil {
		return models.Listing{}, err
	}

	now := models.Timestamp()
	listing.ID = ids.New()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	l.items = append(l.items, listing)
	return listing, nil
}

func (l *listings) Get(ctx context.Context, listingID string) (models.Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.indexOf(listingID); i >= 0 {
		return l.items[i], nil
	}
	return models.Listing{}, repository.ErrListingNotFound
}

func (l *listings) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Listing, 0)
	for _, item := range l.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *listings) Replace(ctx context.Context, listing models.Listing) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(listing.ID)
	if i < 0 || l.items[i].OwnerID != listing.OwnerID {
		return repository.ErrListingNotFound
	}
	listing.CreatedAt = l.items[i].CreatedAt
	if listing.UpdatedAt.IsZero() {
		listing.UpdatedAt = models.Timestamp()
	}
	l.items[i] = listing
	return nil
}

func (l *listings) Delete(ctx context.Context, ownerID string, listingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(listingID)
	if i < 0 || l.items[i].OwnerID != ownerID {
		return repository.ErrListingNotFound
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

func (l *listings) Search(ctx context.Context, query repository.ListingQuery) ([]models.OwnedListing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.OwnedListing, 0)
	for _, item := range l.items {
		if !query.Matches(item) {
			continue
		}
		owner, err := l.users.getLocked(item.OwnerID)
		if err != nil {
			continue
		}
		out = append(out, models.OwnedListing{Listing: item, OwnerEmail: owner.Email})
	}
	return out, nil
}

func (l *listings) indexOf(listingID string) int {
	for i, item := range l.items {
		if item.ID == listingID {
			return i
		}
	}
	return -1
}
