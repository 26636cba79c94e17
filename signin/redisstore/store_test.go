package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-auth-state/signin"
	"github.com/goliatone/go-auth-state/signin/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return redisstore.New(rdb, opts...), mr
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	phone := signin.PhoneCodeFactor{PhoneNumberID: "idn_1", SafeIdentifier: "+1******89", Default: true}
	session := signin.NewChallengeSession([]signin.SecondFactor{
		phone,
		signin.TOTPFactor{},
		signin.UnknownFactor{Name: "passkey", Raw: `{"strategy":"passkey"}`},
	}, signin.WithID("chal_1"))

	require.NoError(t, session.Start(signin.PreferStrategy(signin.StrategyPhoneCode)))
	require.NoError(t, session.MarkPrepared(phone))

	require.NoError(t, store.Save(ctx, session.Snapshot()))

	snap, err := store.Load(ctx, "chal_1")
	require.NoError(t, err)

	restored := signin.Restore(snap)
	assert.Equal(t, "chal_1", restored.ID())
	assert.Equal(t, signin.StateAwaitingVerification, restored.State())
	assert.Equal(t, phone, restored.CurrentFactor())
	assert.True(t, restored.FactorAlreadyPrepared())
	assert.Len(t, restored.AvailableFactors(), 3)
	assert.Equal(t, signin.UnknownFactor{Name: "passkey", Raw: `{"strategy":"passkey"}`}, restored.AvailableFactors()[2])
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, signin.ErrChallengeNotFound)
}

func TestStore_Expires(t *testing.T) {
	store, mr := newStore(t, redisstore.WithTTL(time.Minute))
	ctx := context.Background()

	session := signin.NewChallengeSession([]signin.SecondFactor{signin.TOTPFactor{}}, signin.WithID("chal_ttl"))
	require.NoError(t, store.Save(ctx, session.Snapshot()))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "chal_ttl")
	assert.ErrorIs(t, err, signin.ErrChallengeNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, mr := newStore(t, redisstore.WithPrefix("test"))
	ctx := context.Background()

	session := signin.NewChallengeSession(nil, signin.WithID("chal_del"))
	require.NoError(t, store.Save(ctx, session.Snapshot()))
	assert.True(t, mr.Exists("test:chal_del"))

	require.NoError(t, store.Delete(ctx, "chal_del"))
	assert.False(t, mr.Exists("test:chal_del"))
}
