package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"avocare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrateFallsBackToLegacyKey(t *testing.T) {
	ctx := context.Background()
	sessions, kv := newSessions(t)
	user := models.User{ID: "u1", Name: "Grower"}
	raw, _ := json.Marshal(user)
	require.NoError(t, kv.Set(ctx, KeyLegacyToken, "legacy-token"))
	require.NoError(t, kv.Set(ctx, KeyUser, string(raw)))

	require.NoError(t, sessions.Hydrate(ctx))

	s := sessions.Current()
	assert.Equal(t, "legacy-token", s.Token)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Grower", s.Username)
	assert.True(t, sessions.LoggedIn())
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestLoginPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	sessions, kv := newSessions(t)
	require.NoError(t, kv.Set(ctx, KeyLegacyToken, "old"))

	var events []Session
	unsubscribe := sessions.Subscribe(func(s Session) { events = append(events, s) })
	defer unsubscribe()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, "u1", exp)
	require.NoError(t, sessions.Login(ctx, token, &models.User{ID: "u1", Name: "Grower", Role: models.RoleAdmin}))

	for key, want := range map[string]string{KeyToken: token, KeyUserID: "u1", KeyUsername: "Grower"} {
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := kv.Get(ctx, KeyLegacyToken)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.Len(t, events, 1)
	assert.True(t, events[0].IsAdmin())
	assert.True(t, events[0].ExpiresAt.Equal(exp))

	require.NoError(t, sessions.Logout(ctx))
	require.Len(t, events, 2)
	assert.Empty(t, events[1].Token)
	for _, key := range SessionKeys {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, ErrKeyNotFound, key)
	}
}

func TestHydrateObservesLogoutElsewhere(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	here := NewSessionStore(kv, nil)
	there := NewSessionStore(kv, nil)
	loginAs(t, here, models.User{ID: "u1", Name: "Grower"})

	require.NoError(t, there.Hydrate(ctx))
	require.True(t, there.LoggedIn())
	require.NoError(t, here.Logout(ctx))

	assert.True(t, there.LoggedIn())
	require.NoError(t, there.Hydrate(ctx))
	assert.False(t, there.LoggedIn())
}

func TestGateRefusesWithoutSession(t *testing.T) {
	sessions, _ := newSessions(t)
	notifier := &recordingNotifier{}
	gate := NewGate(sessions, notifier)

	_, err := gate.Require(context.Background(), "like posts")

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Equal(t, []string{"like posts"}, notifier.prompts)
}

func TestGateClearsExpiredSession(t *testing.T) {
	ctx := context.Background()
	sessions, kv := newSessions(t)
	notifier := &recordingNotifier{}
	gate := NewGate(sessions, notifier)

	token := signedToken(t, "u1", time.Now().Add(-time.Minute))
	require.NoError(t, sessions.Login(ctx, token, &models.User{ID: "u1", Name: "Grower"}))
	assert.False(t, sessions.LoggedIn())

	var cleared bool
	sessions.Subscribe(func(s Session) { cleared = s.Token == "" })

	_, err := gate.Require(ctx, "comment")

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.True(t, cleared)
	assert.Equal(t, 1, notifier.Prompts())
	_, err = kv.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestGateChecksExpiryOnEveryCall(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newSessions(t)
	gate := NewGate(sessions, nil)
	now := time.Now()
	sessions.now = func() time.Time { return now }

	require.NoError(t, sessions.Login(ctx, signedToken(t, "u1", now.Add(time.Minute)), &models.User{ID: "u1"}))
	_, err := gate.Require(ctx, "like posts")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = gate.Require(ctx, "like posts")
	assert.ErrorIs(t, err, ErrAuthRequired)
}
