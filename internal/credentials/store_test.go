package credentials_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"bloomfield.org/bloom-web/internal/credentials"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestBearerTokenPriority(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemory()
	store.Set(credentials.KeyToken, "user-token")
	require.Equal(t, "user-token", store.BearerToken())

	store.Set(credentials.KeyVendorToken, "vendor-token")
	require.Equal(t, "vendor-token", store.BearerToken())

	store.Set(credentials.KeyAdminToken, "admin-token")
	require.Equal(t, "admin-token", store.BearerToken())
}

func TestBearerTokenSkipsExpiredJWT(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemory()
	store.Set(credentials.KeyAdminToken, signedToken(t, time.Now().Add(-time.Hour)))
	store.Set(credentials.KeyToken, signedToken(t, time.Now().Add(time.Hour)))

	require.Equal(t, store.Get(credentials.KeyToken), store.BearerToken())
}

func TestExpiredTreatsOpaqueTokensAsLive(t *testing.T) {
	t.Parallel()

	require.False(t, credentials.Expired("not-a-jwt"))
	require.False(t, credentials.Expired(""))
	require.True(t, credentials.Expired(signedToken(t, time.Now().Add(-time.Minute))))
	require.False(t, credentials.Expired(signedToken(t, time.Now().Add(time.Minute))))
}

func TestClearRemovesEverything(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemory()
	store.Set(credentials.KeyUserID, "u1")
	store.Set(credentials.KeyToken, "tok")
	store.Set(credentials.KeyVendorToken, "vtok")

	store.Clear()

	require.Empty(t, store.Get(credentials.KeyUserID))
	require.Empty(t, store.Get(credentials.KeyToken))
	require.Empty(t, store.Get(credentials.KeyVendorToken))
	require.Nil(t, store.Snapshot())
}

func TestSeedAndSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemory()
	store.Seed(map[string]string{
		credentials.KeyUserID: "u42",
		credentials.KeyToken:  "tok42",
	})

	snap := store.Snapshot()
	require.Equal(t, "u42", snap[credentials.KeyUserID])
	require.Equal(t, "tok42", snap[credentials.KeyToken])

	// Snapshot is a copy, not a live view.
	snap[credentials.KeyUserID] = "mutated"
	require.Equal(t, "u42", store.Get(credentials.KeyUserID))
}
