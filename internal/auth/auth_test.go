package auth_test

import (
	"context"
	"testing"
	"time"

	"streamchat/internal/auth"
	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssuer_IssueAndValidate(t *testing.T) {
	iss := auth.NewIssuer(secret, time.Hour)
	user := models.User{ID: "u1", Name: "alice", IsAdmin: true}

	token, err := iss.Issue(user)
	require.NoError(t, err)

	got, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	decoded, err := auth.DecodeUser(token)
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	iss := auth.NewIssuer(secret, time.Hour)
	other := auth.NewIssuer("another-secret-another-secret-xx", time.Hour)
	expired := auth.NewIssuer(secret, time.Nanosecond)

	foreign, err := other.Issue(models.User{ID: "u1"})
	require.NoError(t, err)
	stale, err := expired.Issue(models.User{ID: "u1"})
	require.NoError(t, err)
	time.Sleep(time.Second + 10*time.Millisecond)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Validate(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}

	_, err = iss.Issue(models.User{})
	assert.Error(t, err)
}

func TestDecodeUser_Garbage(t *testing.T) {
	_, err := auth.DecodeUser("a.b.c")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func newStore(t *testing.T) (*auth.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return auth.NewSessionStore(storage.NewRedisKV(rdb, "")), mr
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, user.ID)

	require.NoError(t, store.Save(ctx, "tok", models.User{ID: "u1", Name: "alice"}))
	token, user, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "alice", user.Name)

	require.NoError(t, store.Clear(ctx))
	token, _, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionStore_FallsBackToTokenPayload(t *testing.T) {
	store, mr := newStore(t)
	iss := auth.NewIssuer(secret, time.Hour)
	token, err := iss.Issue(models.User{ID: "u7", Name: "grace"})
	require.NoError(t, err)
	require.NoError(t, mr.Set(config.TokenKey, token))

	got, user, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, "u7", user.ID)
	assert.Equal(t, "grace", user.Name)
}
