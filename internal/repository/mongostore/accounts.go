package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"unimart/internal/models"
	"unimart/internal/repository"
)

// accountProjection keeps the embedded listings out of account reads.
var accountProjection = bson.M{"Products": 0}

// emailCollation compares emails ignoring case, so accounts stored with
// mixed-case addresses are still found by their lower-cased form.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

type AccountRepository struct {
	coll *mongo.Collection
	kind models.AccountKind
}

func NewAccountRepository(coll *mongo.Collection, kind models.AccountKind) *AccountRepository {
	return &AccountRepository{coll: coll, kind: kind}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) (models.Account, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := accountDoc{
		ID:        primitive.NewObjectID(),
		Name:      account.Name,
		Email:     account.Email,
		Password:  string(account.PasswordHash),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Account{}, repository.ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return doc.toModel(r.kind), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(emailCollation))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, options.FindOne())
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrAccountNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"password":  string(passwordHash),
			"updatedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (models.Account, error) {
	var doc accountDoc
	err := r.coll.FindOne(ctx, filter, opts.SetProjection(accountProjection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, repository.ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return doc.toModel(r.kind), nil
}
