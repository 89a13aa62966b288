package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"unimart/internal/models"
	"unimart/internal/repository"
)

// Collection names are shared with existing deployments.
const (
	UsersCollection  = "recos"
	AdminsCollection = "admins"
)

type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *AccountRepository
	admins   *AccountRepository
	listings *ListingRepository
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	usersColl := db.Collection(UsersCollection)

	return &Store{
		client:   client,
		db:       db,
		users:    NewAccountRepository(usersColl, models.AccountKindUser),
		admins:   NewAccountRepository(db.Collection(AdminsCollection), models.AccountKindAdmin),
		listings: NewListingRepository(usersColl),
	}
}

// EmailIndex is the unique, case-insensitive email index on both account
// collections.
const EmailIndex = "email_ci"

// EnsureIndexes creates the unique email indexes and the listing id index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName(EmailIndex).
			SetUnique(true).
			SetCollation(emailCollation),
	}

	for _, name := range []string{UsersCollection, AdminsCollection} {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, emailIndex); err != nil {
			return fmt.Errorf("create email index on %s: %w", name, err)
		}
	}

	productIndex := mongo.IndexModel{Keys: bson.D{{Key: "Products._id", Value: 1}}}
	if _, err := s.db.Collection(UsersCollection).Indexes().CreateOne(ctx, productIndex); err != nil {
		return fmt.Errorf("create product index: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.AccountStore    { return s.users }
func (s *Store) Admins() repository.AccountStore   { return s.admins }
func (s *Store) Listings() repository.ListingStore { return s.listings }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
