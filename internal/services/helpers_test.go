package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/internal/testutil/memstore"
	"github.com/dutyroster/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// recordingPublisher keeps every published event for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []types.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event types.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store       *memstore.Store
	events      *recordingPublisher
	tokens      *services.TokenIssuer
	auth        *services.AuthService
	accounts    *services.AccountService
	schedules   *services.ScheduleService
	workRecords *services.WorkRecordService
	todos       *services.TodoService
	admin       types.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memstore.New()
	pub := &recordingPublisher{}
	hasher := services.NewBcryptHasher(bcrypt.MinCost)
	tokens := services.NewTokenIssuer(testSecret, 30*time.Minute)

	f := &fixture{
		store:       st,
		events:      pub,
		tokens:      tokens,
		auth:        services.NewAuthService(st, tokens, hasher, nil),
		accounts:    services.NewAccountService(st, hasher, pub, nil),
		schedules:   services.NewScheduleService(st, pub, nil),
		workRecords: services.NewWorkRecordService(st, nil),
		todos:       services.NewTodoService(st, pub, nil),
	}

	admin, created, err := f.accounts.SeedAdmin(context.Background(), types.NewAccount{
		Name:     "管理员",
		Login:    "admin",
		Password: "admin123",
	})
	require.NoError(t, err)
	require.True(t, created)
	f.admin = admin
	return f
}

// student creates a non-admin account with password "pw-<login>".
func (f *fixture) student(t *testing.T, login, name string) types.Account {
	t.Helper()
	acc, err := f.accounts.Create(context.Background(), f.admin, types.NewAccount{
		Name:     name,
		Login:    login,
		Password: "pw-" + login,
	})
	require.NoError(t, err)
	return acc
}

func date(t *testing.T, value string) types.Date {
	t.Helper()
	d, err := types.ParseDate(value)
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T {
	return &v
}
