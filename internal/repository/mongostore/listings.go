package mongostore

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"unimart/internal/models"
	"unimart/internal/repository"
)

// ListingRepository works on the Products array embedded in user documents.
// Every write touches a single array element through one atomic update.
type ListingRepository struct {
	users *mongo.Collection
}

func NewListingRepository(users *mongo.Collection) *ListingRepository {
	return &ListingRepository{users: users}
}

func (r *ListingRepository) Append(ctx context.Context, listing models.Listing) (models.Listing, error) {
	ownerID, err := primitive.ObjectIDFromHex(listing.OwnerID)
	if err != nil {
		return models.Listing{}, repository.ErrAccountNotFound
	}

	now := models.Timestamp()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	doc := productFromModel(primitive.NewObjectID(), listing)

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": ownerID}, bson.M{
		"$push": bson.M{"Products": doc},
	})
	if err != nil {
		return models.Listing{}, err
	}
	if res.MatchedCount == 0 {
		return models.Listing{}, repository.ErrAccountNotFound
	}

	listing.ID = doc.ID.Hex()
	return listing, nil
}

func (r *ListingRepository) Get(ctx context.Context, listingID string) (models.Listing, error) {
	lid, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return models.Listing{}, repository.ErrListingNotFound
	}

	var doc accountDoc
	err = r.users.FindOne(ctx,
		bson.M{"Products._id": lid},
		options.FindOne().SetProjection(bson.M{"Products.$": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Listing{}, repository.ErrListingNotFound
		}
		return models.Listing{}, err
	}
	if len(doc.Products) == 0 {
		return models.Listing{}, repository.ErrListingNotFound
	}
	return doc.Products[0].toModel(doc.ID), nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, repository.ErrAccountNotFound
	}

	var doc accountDoc
	err = r.users.FindOne(ctx,
		bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"Products": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrAccountNotFound
		}
		return nil, err
	}

	listings := make([]models.Listing, 0, len(doc.Products))
	for _, p := range doc.Products {
		listings = append(listings, p.toModel(doc.ID))
	}
	return listings, nil
}

func (r *ListingRepository) Replace(ctx context.Context, listing models.Listing) error {
	ownerID, err := primitive.ObjectIDFromHex(listing.OwnerID)
	if err != nil {
		return repository.ErrListingNotFound
	}
	lid, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return repository.ErrListingNotFound
	}

	if listing.UpdatedAt.IsZero() {
		listing.UpdatedAt = models.Timestamp()
	}
	doc := productFromModel(lid, listing)

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": ownerID, "Products._id": lid},
		bson.M{"$set": bson.M{"Products.$": doc}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, ownerID string, listingID string) error {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return repository.ErrListingNotFound
	}
	lid, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return repository.ErrListingNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid, "Products._id": lid},
		bson.M{"$pull": bson.M{"Products": bson.M{"_id": lid}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrListingNotFound
	}
	return nil
}

type unwoundProduct struct {
	OwnerID primitive.ObjectID `bson:"_id"`
	Email   string             `bson:"email"`
	Product productDoc         `bson:"Products"`
}

func (r *ListingRepository) Search(ctx context.Context, q repository.ListingQuery) ([]models.OwnedListing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{"email": 1, "Products": 1}}},
		{{Key: "$unwind", Value: "$Products"}},
	}
	if match := searchFilter(q); len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.OwnedListing, 0)
	for cursor.Next(ctx) {
		var row unwoundProduct
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		listing := row.Product.toModel(row.OwnerID)
		// Legacy documents are normalized after decoding, so re-check here.
		if !q.Matches(listing) {
			continue
		}
		out = append(out, models.OwnedListing{Listing: listing, OwnerEmail: row.Email})
	}
	return out, cursor.Err()
}

func searchFilter(q repository.ListingQuery) bson.M {
	match := bson.M{}
	if q.ApprovedOnly {
		match["Products.approved_status"] = true
	}
	if q.State != "" {
		match["Products.approved_string"] = string(q.State)
	}
	if q.NameContains != "" {
		match["Products.name"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.NameContains), Options: "i"}
	}
	return match
}
