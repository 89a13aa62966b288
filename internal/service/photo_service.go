package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"unimart/internal/events"
	"unimart/internal/media/sniffer"
	"unimart/internal/models"
	"unimart/internal/repository"
)

const MaxPhotoBytes = 5 << 20

// ObjectWriter stores photo bytes. *storage.ObjectStore satisfies it.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

type PhotoService struct {
	listings repository.ListingStore
	objects  ObjectWriter
	events   EventPublisher
	log      zerolog.Logger
}

// NewPhotoService builds the service; a nil objects disables uploads.
func NewPhotoService(store repository.Store, objects ObjectWriter, publisher EventPublisher, log zerolog.Logger) *PhotoService {
	return &PhotoService{
		listings: store.Listings(),
		objects:  objects,
		events:   publisher,
		log:      log,
	}
}

func (s *PhotoService) Enabled() bool {
	return s != nil && s.objects != nil
}

// URL returns the public address of a stored photo, or "" when there is none.
func (s *PhotoService) URL(key string) string {
	if key == "" || !s.Enabled() {
		return ""
	}
	return s.objects.URL(key)
}

type PhotoInput struct {
	OwnerID     string
	ListingID   string
	File        io.Reader
	ContentType string
}

// Upload replaces a listing's photo. Like any owner edit it sends the listing
// back to review.
func (s *PhotoService) Upload(ctx context.Context, input PhotoInput) (models.Listing, error) {
	if !s.Enabled() {
		return models.Listing{}, ErrPhotosDisabled
	}
	if input.File == nil {
		return models.Listing{}, missing("file")
	}

	listing, err := s.listings.Get(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return models.Listing{}, err
		}
		return models.Listing{}, fmt.Errorf("load listing: %w", err)
	}
	if listing.OwnerID != input.OwnerID {
		return models.Listing{}, repository.ErrListingNotFound
	}

	data, kind, err := readPhoto(input.File, input.ContentType)
	if err != nil {
		return models.Listing{}, err
	}

	key := path.Join("listings", listing.OwnerID, listing.ID+"."+kind.Extension())
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), kind.MIME); err != nil {
		return models.Listing{}, err
	}

	previous := listing.PhotoKey
	listing.PhotoKey = key
	listing.MarkPending()
	listing.Touch()

	if err := s.listings.Replace(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return models.Listing{}, err
		}
		return models.Listing{}, fmt.Errorf("save listing: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.objects.Remove(ctx, previous); err != nil {
			s.log.Warn().Err(err).Str("object", previous).Msg("remove replaced photo failed")
		}
	}

	if s.events != nil {
		err := s.events.Publish(ctx, events.Event{
			Type:        events.ListingUpdated,
			ListingID:   listing.ID,
			ListingName: listing.Name,
			OwnerID:     listing.OwnerID,
			State:       string(listing.State()),
		})
		if err != nil {
			s.log.Warn().Err(err).Str("listing_id", listing.ID).Msg("publish listing event failed")
		}
	}

	return listing, nil
}

// readPhoto reads at most MaxPhotoBytes and checks the content is a raster
// image matching the declared type.
func readPhoto(r io.Reader, declared string) ([]byte, sniffer.Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, sniffer.Result{}, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return nil, sniffer.Result{}, missing("file")
	}
	if len(data) > MaxPhotoBytes {
		return nil, sniffer.Result{}, ErrPhotoTooLarge
	}

	kind, err := sniffer.DetectHead(data[:min(len(data), 512)])
	if err != nil || !kind.Photo() {
		return nil, sniffer.Result{}, ErrUnsupportedPhoto
	}

	if declared != "" && declared != "application/octet-stream" && declared != kind.MIME {
		return nil, sniffer.Result{}, fmt.Errorf("%w: declared %s, detected %s", ErrUnsupportedPhoto, declared, kind.MIME)
	}
	return data, kind, nil
}
