package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"unimart/internal/events"
	"unimart/internal/models"
	"unimart/internal/repository/memstore"
	"unimart/internal/security"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	tokens   *security.TokenService
	auth     *AuthService
	listings *ListingService
	events   *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memstore.New()
	tokens := security.NewTokenService("user-secret", "admin-secret", time.Hour)
	pub := &recordingPublisher{}

	return fixture{
		store:    store,
		tokens:   tokens,
		auth:     NewAuthService(store, tokens, zerolog.Nop()),
		listings: NewListingService(store, pub, zerolog.Nop()),
		events:   pub,
	}
}

func (f fixture) registerUser(t *testing.T, name, email, password string) models.Account {
	t.Helper()
	account, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return account
}

func price(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func bookInput(name string, p float64) ListingInput {
	return ListingInput{
		Name:            name,
		Price:           price(p),
		RollNo:          "21B01",
		CollegeName:     "GVP",
		GoogleDriveLink: "https://drive.example/book",
		Description:     "second hand",
		Dept:            "CSE",
		PhoneNo:         "9000000000",
	}
}
