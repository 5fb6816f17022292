package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterEndpointCreatesGroup(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterEndpoint("testproto", "localhost:8089", []byte("tok")))
	require.True(t, r.GroupExists("testproto"))

	url, err := r.Find("testproto", SelectionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "localhost:8089", url)
}

func TestRegisterEndpointDuplicateURL(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	err := r.RegisterEndpoint("p", "u1", nil)
	require.ErrorIs(t, err, ErrDuplicateURL)
}

func TestAddGroupFailsOnCollision(t *testing.T) {
	r := New()

	require.NoError(t, r.AddGroup("p"))
	require.ErrorIs(t, r.AddGroup("p"), ErrAlreadyRegistered)
}

func TestDeregisterRemovesEmptyGroup(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))

	require.NoError(t, r.Deregister("p", "u1"))
	require.False(t, r.GroupExists("p"))
}

func TestDeregisterLeavesGroupWithRemainingEndpoints(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	require.NoError(t, r.RegisterEndpoint("p", "u2", nil))

	require.NoError(t, r.Deregister("p", "u1"))
	require.True(t, r.GroupExists("p"))

	url, err := r.Find("p", SelectionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "u2", url)
}

func TestDeregisterUnknownInterface(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Deregister("missing", "u1"), ErrNotFound)
}

func TestDeregisterUnknownEndpoint(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))

	require.ErrorIs(t, r.Deregister("p", "u2"), ErrNotFound)
	require.True(t, r.GroupExists("p"))
}

func TestFindDefaultPicksFirstByInsertionOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	require.NoError(t, r.RegisterEndpoint("p", "u2", nil))

	url, err := r.Find("p", SelectionPolicy{})
	require.NoError(t, err)
	require.Equal(t, "u1", url)
}

func TestFindByLowestUseBreaksTiesByInsertionOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	require.NoError(t, r.RegisterEndpoint("p", "u2", nil))
	require.NoError(t, r.RegisterEndpoint("p", "u3", nil))

	require.NoError(t, r.KeepAlive("p", "u2", 1))

	// u1 and u3 are both at 0, u1 comes first.
	url, err := r.Find("p", SelectionPolicy{ByLowestUse: true})
	require.NoError(t, err)
	require.Equal(t, "u1", url)
}

func TestFindByRoundRobinAdvancesAndPersists(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	require.NoError(t, r.RegisterEndpoint("p", "u2", nil))

	var seen []string
	for i := 0; i < 4; i++ {
		url, err := r.Find("p", SelectionPolicy{ByRoundRobin: true})
		require.NoError(t, err)
		seen = append(seen, url)
	}
	require.Equal(t, []string{"u1", "u2", "u1", "u2"}, seen)
}

func TestFindUnknownInterface(t *testing.T) {
	r := New()
	_, err := r.Find("missing", SelectionPolicy{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKeepAliveLastWriterWins(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))

	require.NoError(t, r.KeepAlive("p", "u1", 5))
	require.NoError(t, r.KeepAlive("p", "u1", 42))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, uint32(42), snap[0].Endpoints[0].RequestCounter)
}

func TestKeepAliveUnmatchedURLIsSilent(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))

	require.NoError(t, r.KeepAlive("p", "does-not-exist", 1))
}

func TestKeepAliveUnknownInterface(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.KeepAlive("missing", "u1", 1), ErrNotFound)
}

func TestAuthorizeUnknownInterface(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Authorize("missing", []byte("tok")), ErrNotFound)
}

func TestAuthorizeSetsClientToken(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))
	require.NoError(t, r.Authorize("p", []byte("client-tok")))
	require.Equal(t, []byte("client-tok"), r.groups["p"].ClientToken)
}

func TestSnapshotEmptyRegistry(t *testing.T) {
	r := New()
	require.Empty(t, r.Snapshot())
}

func TestSnapshotIsDetachedFromLiveState(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterEndpoint("p", "u1", nil))

	snap := r.Snapshot()
	require.NoError(t, r.KeepAlive("p", "u1", 99))

	require.Equal(t, uint32(0), snap[0].Endpoints[0].RequestCounter)
}

func TestRegisterDeregisterRoundTrip(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterEndpoint("p", "u1", []byte("tok")))
	require.NoError(t, r.Deregister("p", "u1"))

	require.False(t, r.GroupExists("p"))
	require.Empty(t, r.Snapshot())
}

func TestPingSucceedsWhenUnlocked(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Ping(ctx))
}

func TestPingFailsWhenLockHeldPastDeadline(t *testing.T) {
	r := New()
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, r.Ping(ctx))
}
