package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	assert.False(t, alice.IsActive)
	assert.Nil(t, alice.LastLogin)

	_, err := f.auth.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.EqualError(t, err, "Incorrect username or password")

	_, err = f.auth.Authenticate(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	result, err := f.auth.Authenticate(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	assert.Equal(t, "bearer", result.TokenType)
	assert.True(t, result.RequirePasswordChange)
	assert.NotEmpty(t, result.AccessToken)

	acc, err := f.auth.Resolve(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, acc.ID)
	assert.True(t, acc.IsActive)
	assert.NotNil(t, acc.LastLogin)
}

func TestPasswordChangeClearsRequirement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")

	require.NoError(t, f.accounts.ChangeOwnPassword(ctx, alice, "n3w-pass"))

	_, err := f.auth.Authenticate(ctx, "alice", "pw-alice")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	result, err := f.auth.Authenticate(ctx, "alice", "n3w-pass")
	require.NoError(t, err)
	assert.False(t, result.RequirePasswordChange)

	require.NoError(t, f.accounts.ResetPassword(ctx, f.admin, alice.ID, "temp"))
	result, err = f.auth.Authenticate(ctx, "alice", "temp")
	require.NoError(t, err)
	assert.True(t, result.RequirePasswordChange)

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, alice, alice.ID, "x"), services.ErrForbidden)
	assert.ErrorIs(t, f.accounts.ChangeOwnPassword(ctx, alice, ""), services.ErrInvalidInput)
}

func TestAdminNeverRequiresPasswordChange(t *testing.T) {
	f := newFixture(t)

	result, err := f.auth.Authenticate(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, result.RequirePasswordChange)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")

	expired := services.NewTokenIssuer(testSecret, -time.Minute)
	token, err := expired.Issue(alice)
	require.NoError(t, err)
	_, err = f.auth.Resolve(ctx, token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	assert.EqualError(t, err, "Could not validate credentials")

	otherKey := services.NewTokenIssuer("another-secret", time.Minute)
	token, err = otherKey.Issue(alice)
	require.NoError(t, err)
	_, err = f.auth.Resolve(ctx, token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	token, err = unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = f.auth.Resolve(ctx, token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	_, err = f.auth.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	ghost, err := f.tokens.Issue(types.Account{ID: 404, Login: "ghost"})
	require.NoError(t, err)
	_, err = f.auth.Resolve(ctx, ghost)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestTokenClaims(t *testing.T) {
	issuer := services.NewTokenIssuer(testSecret, 30*time.Minute)
	token, err := issuer.Issue(types.Account{ID: 3, Login: "alice"})
	require.NoError(t, err)

	claims, err := issuer.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, 3, claims.StudentID)
	assert.False(t, claims.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRequireAdmin(t *testing.T) {
	_, err := services.RequireAdmin(types.Account{ID: 1})
	assert.ErrorIs(t, err, services.ErrForbidden)

	acc, err := services.RequireAdmin(types.Account{ID: 2, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, 2, acc.ID)
}
