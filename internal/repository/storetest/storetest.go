// Package storetest holds the behaviour every repository.Store backend must
// share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/models"
	"unimart/internal/repository"
)

// Run exercises a store implementation. newStore must return an empty store
// on every call.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("ListingLifecycle", func(t *testing.T) { testListingLifecycle(t, newStore(t)) })
	t.Run("PublicFeedExcludesUnapproved", func(t *testing.T) { testPublicFeed(t, newStore(t)) })
	t.Run("NameFilterIsLiteral", func(t *testing.T) { testNameFilter(t, newStore(t)) })
	t.Run("ReplaceKeepsUpdatedAt", func(t *testing.T) { testUpdatedAt(t, newStore(t)) })
}

func account(name, email string) models.Account {
	return models.Account{Name: name, Email: email, PasswordHash: []byte("hash-" + name)}
}

func pendingListing(ownerID, name string) models.Listing {
	l := models.Listing{
		OwnerID:         ownerID,
		Name:            name,
		Price:           10,
		RollNo:          "21B01",
		CollegeName:     "GVP",
		GoogleDriveLink: "https://drive.example/x",
		Description:     "good condition",
		Dept:            "CSE",
		PhoneNo:         "9000000000",
	}
	l.MarkPending()
	return l
}

func assertAgreement(t *testing.T, l models.Listing) {
	t.Helper()
	assert.Equal(t, l.ApprovedString == models.StateApproved, l.ApprovedStatus,
		"approved_status must mirror approved_string (%s)", l.ApprovedString)
}

func names(listings []models.OwnedListing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Name)
	}
	return out
}

func testAccounts(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user, err := s.Users().Create(ctx, account("A", "Mixed@X.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.AccountKindUser, user.Kind)

	_, err = s.Users().Create(ctx, account("B", "mixed@x.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	found, err := s.Users().FindByEmail(ctx, "mixed@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Mixed@X.com", found.Email)
	assert.Equal(t, []byte("hash-A"), found.PasswordHash)

	admin, err := s.Admins().Create(ctx, account("Admin", "mixed@x.com"))
	require.NoError(t, err)
	assert.Equal(t, models.AccountKindAdmin, admin.Kind)

	_, err = s.Admins().GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	_, err = s.Users().FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	require.NoError(t, s.Users().UpdatePassword(ctx, user.ID, []byte("rotated")))
	got, err := s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("rotated"), got.PasswordHash)
	assert.Equal(t, "A", got.Name)

	assert.ErrorIs(t, s.Users().UpdatePassword(ctx, "missing", []byte("x")), repository.ErrAccountNotFound)
}

func testListingLifecycle(t *testing.T, s repository.Store) {
	ctx := context.Background()

	owner, err := s.Users().Create(ctx, account("A", "a@x.com"))
	require.NoError(t, err)
	other, err := s.Users().Create(ctx, account("B", "b@x.com"))
	require.NoError(t, err)

	_, err = s.Listings().Append(ctx, pendingListing("missing", "Ghost"))
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	book, err := s.Listings().Append(ctx, pendingListing(owner.ID, "Physics Book"))
	require.NoError(t, err)
	require.NotEmpty(t, book.ID)
	lamp, err := s.Listings().Append(ctx, pendingListing(owner.ID, "Desk lamp"))
	require.NoError(t, err)
	assert.NotEqual(t, book.ID, lamp.ID)

	got, err := s.Listings().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "Physics Book", got.Name)
	assert.Equal(t, 10.0, got.Price)
	assert.Equal(t, models.StatePending, got.State())
	assertAgreement(t, got)

	for _, step := range []func(*models.Listing) error{
		(*models.Listing).Approve,
		func(l *models.Listing) error { l.MarkPending(); return nil },
		(*models.Listing).Reject,
	} {
		require.NoError(t, step(&got))
		require.NoError(t, s.Listings().Replace(ctx, got))

		stored, err := s.Listings().Get(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, got.State(), stored.State())
		assertAgreement(t, stored)
	}

	got.Price = 0
	got.Dept = "ECE"
	got.MarkPending()
	require.NoError(t, s.Listings().Replace(ctx, got))
	stored, err := s.Listings().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.Price)
	assert.Equal(t, "ECE", stored.Dept)
	assert.Equal(t, "Desk lamp", mustGet(t, s, lamp.ID).Name, "neighbouring listings are untouched")

	foreign := got
	foreign.OwnerID = other.ID
	assert.ErrorIs(t, s.Listings().Replace(ctx, foreign), repository.ErrListingNotFound)
	missing := got
	missing.ID = "missing"
	assert.ErrorIs(t, s.Listings().Replace(ctx, missing), repository.ErrListingNotFound)

	mine, err := s.Listings().ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	theirs, err := s.Listings().ListByOwner(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	assert.ErrorIs(t, s.Listings().Delete(ctx, other.ID, book.ID), repository.ErrListingNotFound)
	mustGet(t, s, book.ID)

	require.NoError(t, s.Listings().Delete(ctx, owner.ID, book.ID))
	_, err = s.Listings().Get(ctx, book.ID)
	assert.ErrorIs(t, err, repository.ErrListingNotFound)
	assert.ErrorIs(t, s.Listings().Delete(ctx, owner.ID, book.ID), repository.ErrListingNotFound)

	mine, err = s.Listings().ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, lamp.ID, mine[0].ID)
}

func mustGet(t *testing.T, s repository.Store, id string) models.Listing {
	t.Helper()
	l, err := s.Listings().Get(context.Background(), id)
	require.NoError(t, err)
	return l
}

func testPublicFeed(t *testing.T, s repository.Store) {
	ctx := context.Background()

	a, err := s.Users().Create(ctx, account("A", "a@x.com"))
	require.NoError(t, err)
	b, err := s.Users().Create(ctx, account("B", "b@x.com"))
	require.NoError(t, err)

	decide := func(ownerID, name string, transition func(*models.Listing) error) {
		t.Helper()
		l, err := s.Listings().Append(ctx, pendingListing(ownerID, name))
		require.NoError(t, err)
		if transition != nil {
			require.NoError(t, transition(&l))
			require.NoError(t, s.Listings().Replace(ctx, l))
		}
	}
	decide(a.ID, "Approved book", (*models.Listing).Approve)
	decide(a.ID, "Pending book", nil)
	decide(b.ID, "Rejected book", (*models.Listing).Reject)
	decide(b.ID, "Approved drafter", (*models.Listing).Approve)

	for _, filter := range []string{"", "book", "BOOK", "pending", "rejected", "drafter", "zzz"} {
		feed, err := s.Listings().Search(ctx, repository.ListingQuery{ApprovedOnly: true, NameContains: filter})
		require.NoError(t, err)
		for _, l := range feed {
			assert.Equal(t, models.StateApproved, l.State(), "filter %q returned %q", filter, l.Name)
			assertAgreement(t, l.Listing)
		}
	}

	feed, err := s.Listings().Search(ctx, repository.ListingQuery{ApprovedOnly: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Approved book", "Approved drafter"}, names(feed))
	for _, l := range feed {
		switch l.OwnerID {
		case a.ID:
			assert.Equal(t, "a@x.com", l.OwnerEmail)
		case b.ID:
			assert.Equal(t, "b@x.com", l.OwnerEmail)
		default:
			t.Errorf("unexpected owner %q", l.OwnerID)
		}
	}

	feed, err = s.Listings().Search(ctx, repository.ListingQuery{ApprovedOnly: true, NameContains: "BOOK"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Approved book"}, names(feed))

	queue, err := s.Listings().Search(ctx, repository.ListingQuery{State: models.StatePending})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pending book"}, names(queue))

	rejected, err := s.Listings().Search(ctx, repository.ListingQuery{State: models.StateRejected})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rejected book"}, names(rejected))

	all, err := s.Listings().Search(ctx, repository.ListingQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testNameFilter(t *testing.T, s repository.Store) {
	ctx := context.Background()

	owner, err := s.Users().Create(ctx, account("A", "a@x.com"))
	require.NoError(t, err)
	for _, name := range []string{"100% wool scarf", "1000 piece puzzle", "lab_coat", "labXcoat", "c:\\notes", "a.b"} {
		l, err := s.Listings().Append(ctx, pendingListing(owner.ID, name))
		require.NoError(t, err)
		require.NoError(t, l.Approve())
		require.NoError(t, s.Listings().Replace(ctx, l))
	}

	cases := map[string][]string{
		"100%":  {"100% wool scarf"},
		"lab_":  {"lab_coat"},
		`c:\`:   {"c:\\notes"},
		"a.b":   {"a.b"},
		"WOOL":  {"100% wool scarf"},
		"coat":  {"lab_coat", "labXcoat"},
		"(":     {},
		"puzz*": {},
	}
	for filter, want := range cases {
		feed, err := s.Listings().Search(ctx, repository.ListingQuery{ApprovedOnly: true, NameContains: filter})
		require.NoError(t, err, filter)
		assert.ElementsMatch(t, want, names(feed), "filter %q", filter)
	}
}

func testUpdatedAt(t *testing.T, s repository.Store) {
	ctx := context.Background()

	owner, err := s.Users().Create(ctx, account("A", "a@x.com"))
	require.NoError(t, err)
	l, err := s.Listings().Append(ctx, pendingListing(owner.ID, "Book"))
	require.NoError(t, err)
	assert.False(t, l.CreatedAt.IsZero())

	l.UpdatedAt = models.Timestamp().Add(time.Minute)
	require.NoError(t, s.Listings().Replace(ctx, l))

	stored := mustGet(t, s, l.ID)
	assert.True(t, stored.UpdatedAt.Equal(l.UpdatedAt), "stored %s, sent %s", stored.UpdatedAt, l.UpdatedAt)
	assert.True(t, stored.CreatedAt.Equal(l.CreatedAt), "stored %s, appended %s", stored.CreatedAt, l.CreatedAt)
}
