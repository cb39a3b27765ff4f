package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/gateway"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "session.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store, "test_secret_key_1234567890", time.Hour)
	require.NoError(t, m.EnsureAdmin(context.Background(), "Curator@Example.org", "password123", "Curator One"))
	return m
}

func TestLoginLifecycle(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	sess, err := m.Login(ctx, "curator@example.org", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Curator One", sess.ActorDisplay())
	assert.NotEmpty(t, sess.ActorID())

	validated, err := m.Validate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, validated.UserID)
	assert.Equal(t, "curator@example.org", validated.Email)

	refreshed, err := m.Refresh(ctx, validated)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, refreshed.Token)

	_, err = m.Validate(sess.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked, "refresh clears the previous token")

	_, err = m.Validate(refreshed.Token)
	require.NoError(t, err)

	m.Clear(refreshed)
	_, err = m.Validate(refreshed.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestLoginFailures(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	_, err := m.Login(ctx, "curator@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "nobody@example.org", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateErrors(t *testing.T) {
	m := testManager(t)
	sess, err := m.Login(context.Background(), "curator@example.org", "password123")
	require.NoError(t, err)

	t.Run("malformed", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager(nil, "another_secret", time.Hour)
		_, err := other.Validate(sess.Token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		_, err := m.Validate(sess.Token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.EnsureAdmin(context.Background(), "curator@example.org", "other-password", "Someone"))

	admin, err := m.FindAdminByEmail(context.Background(), "CURATOR@example.org")
	require.NoError(t, err)
	assert.Equal(t, "Curator One", admin.DisplayName)
	assert.True(t, CheckPasswordHash("password123", admin.PasswordHash))
}

func TestActorDisplayFallsBackToEmail(t *testing.T) {
	s := &Session{UserID: "u1", Email: "a@b.c"}
	assert.Equal(t, "a@b.c", s.ActorDisplay())

	var none *Session
	assert.Equal(t, "", none.ActorDisplay())
	assert.Equal(t, "", none.ActorID())
}
