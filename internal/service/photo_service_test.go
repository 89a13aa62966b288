package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/events"
	"unimart/internal/models"
	"unimart/internal/repository"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Remove(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjects) URL(key string) string { return "https://cdn.example/" + key }

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 32)...)

var jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{1}, 32)...)

func TestPhotoUploadResetsToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	objects := newMemObjects()
	photos := NewPhotoService(f.store, objects, f.events, zerolog.Nop())

	owner := f.registerUser(t, "A", "a@x.com", "p1")
	l, err := f.listings.Create(ctx, owner.ID, bookInput("Book", 10))
	require.NoError(t, err)
	_, err = f.listings.Approve(ctx, l.ID, "")
	require.NoError(t, err)

	updated, err := photos.Upload(ctx, PhotoInput{
		OwnerID:     owner.ID,
		ListingID:   l.ID,
		File:        bytes.NewReader(pngBytes),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, updated.State())
	assert.False(t, updated.ApprovedStatus)

	stored, err := f.store.Listings().Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.UpdatedAt, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(l.UpdatedAt))

	key := "listings/" + owner.ID + "/" + l.ID + ".png"
	assert.Equal(t, key, updated.PhotoKey)
	assert.Equal(t, pngBytes, objects.objects[key])
	assert.Equal(t, "image/png", objects.types[key])
	assert.Equal(t, "https://cdn.example/"+key, photos.URL(updated.PhotoKey))

	// a new format replaces the previous object
	updated, err = photos.Upload(ctx, PhotoInput{OwnerID: owner.ID, ListingID: l.ID, File: bytes.NewReader(jpegBytes)})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(updated.PhotoKey, ".jpg"))
	assert.NotContains(t, objects.objects, key)

	assert.Equal(t, events.ListingUpdated, f.events.types()[len(f.events.types())-1])
}

func TestPhotoUploadRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	objects := newMemObjects()
	photos := NewPhotoService(f.store, objects, nil, zerolog.Nop())

	a := f.registerUser(t, "A", "a@x.com", "p1")
	b := f.registerUser(t, "B", "b@x.com", "p2")
	l, err := f.listings.Create(ctx, a.ID, bookInput("Book", 10))
	require.NoError(t, err)

	_, err = photos.Upload(ctx, PhotoInput{OwnerID: b.ID, ListingID: l.ID, File: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, repository.ErrListingNotFound)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	_, err = photos.Upload(ctx, PhotoInput{OwnerID: a.ID, ListingID: l.ID, File: bytes.NewReader(svg)})
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)

	_, err = photos.Upload(ctx, PhotoInput{OwnerID: a.ID, ListingID: l.ID, File: bytes.NewReader(pngBytes), ContentType: "image/gif"})
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)

	_, err = photos.Upload(ctx, PhotoInput{OwnerID: a.ID, ListingID: l.ID, File: bytes.NewReader(nil)})
	var missingErr *MissingFieldError
	assert.True(t, errors.As(err, &missingErr))

	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, MaxPhotoBytes)...)
	_, err = photos.Upload(ctx, PhotoInput{OwnerID: a.ID, ListingID: l.ID, File: bytes.NewReader(big)})
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	objects.failPut = true
	_, err = photos.Upload(ctx, PhotoInput{OwnerID: a.ID, ListingID: l.ID, File: bytes.NewReader(pngBytes)})
	assert.Error(t, err)

	got, err := f.listings.Get(ctx, a.ID, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PhotoKey)
	assert.Empty(t, objects.objects)
}

func TestPhotosDisabledWithoutStorage(t *testing.T) {
	f := newFixture(t)
	photos := NewPhotoService(f.store, nil, nil, zerolog.Nop())

	assert.False(t, photos.Enabled())
	assert.Equal(t, "", photos.URL("listings/a/b.png"))

	_, err := photos.Upload(context.Background(), PhotoInput{File: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, ErrPhotosDisabled)
}
