package remote

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolabs/pasture/internal/api"
	"github.com/agrolabs/pasture/internal/auth"
	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
	"github.com/agrolabs/pasture/internal/sync"
)

// Two devices syncing through a real server over HTTP: the whole stack
// minus the network.
func TestTwoDeviceRoundTrip(t *testing.T) {
	ctx := context.Background()
	const secret = "roundtrip-secret"

	server, err := store.OpenServer(store.DriverSQLite, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	farm := &domain.Farm{Name: "Fazenda Integração", OwnerUserID: "user-1"}
	require.NoError(t, server.CreateFarm(ctx, farm))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(server, secret, "test")))
	t.Cleanup(srv.Close)

	token, err := auth.IssueToken(secret, "user-1", time.Hour)
	require.NoError(t, err)

	openDevice := func(name string) (*store.Store, *sync.Orchestrator) {
		local, err := store.OpenLocal(filepath.Join(t.TempDir(), name+".db"))
		require.NoError(t, err)
		t.Cleanup(func() { local.Close() })
		return local, sync.NewOrchestrator(local, NewClient(srv.URL, token, time.Second))
	}

	deviceA, orchA := openDevice("device-a")
	deviceB, orchB := openDevice("device-b")

	table, _ := domain.TableByName("cattle")

	// Device A records an animal offline and syncs.
	animal := &domain.Cattle{Tag: "BR-001", BirthDate: "2022-05-01"}
	animal.Init(farm.ID, domain.Now())
	_, err = deviceA.Apply(ctx, table, farm.ID, animal, store.TieLoses)
	require.NoError(t, err)

	report, err := orchA.Cycle(ctx, farm.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, report.Status)
	assert.Equal(t, 1, report.Pushed)

	// Device B's first sync pulls the animal plus the seeded categories.
	report, err = orchB.Cycle(ctx, farm.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSuccess, report.Status)
	assert.Equal(t, 1+len(domain.DefaultCategories), report.Applied)

	got, err := deviceB.Get(ctx, table, farm.ID, animal.ID)
	require.NoError(t, err)
	assert.Equal(t, "BR-001", got.(*domain.Cattle).Tag)

	// Device B deletes the animal; the tombstone travels back to A.
	require.NoError(t, deviceB.SoftDelete(ctx, table, farm.ID, animal.ID, domain.Now()))

	_, err = orchB.Cycle(ctx, farm.ID)
	require.NoError(t, err)
	_, err = orchA.Cycle(ctx, farm.ID)
	require.NoError(t, err)

	got, err = deviceA.Get(ctx, table, farm.ID, animal.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted(), "the deletion must propagate through the server")

	live, err := deviceA.ListLive(ctx, table, farm.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
}

// Concurrent edits to the same row resolve identically on every replica.
func TestConflictConvergesOnNewestWrite(t *testing.T) {
	ctx := context.Background()
	const secret = "conflict-secret"

	server, err := store.OpenServer(store.DriverSQLite, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	farm := &domain.Farm{Name: "Fazenda Conflito", OwnerUserID: "user-1"}
	require.NoError(t, server.CreateFarm(ctx, farm))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(server, secret, "test")))
	t.Cleanup(srv.Close)

	token, err := auth.IssueToken(secret, "user-1", time.Hour)
	require.NoError(t, err)

	table, _ := domain.TableByName("cattle")
	base := domain.Now()

	// Shared ancestor row already on the server.
	animal := &domain.Cattle{Tag: "BR-ORIG"}
	animal.Init(farm.ID, base)
	_, err = server.Apply(ctx, table, farm.ID, animal, store.TieLoses)
	require.NoError(t, err)

	openSynced := func(name string) (*store.Store, *sync.Orchestrator) {
		local, err := store.OpenLocal(filepath.Join(t.TempDir(), name+".db"))
		require.NoError(t, err)
		t.Cleanup(func() { local.Close() })
		orch := sync.NewOrchestrator(local, NewClient(srv.URL, token, time.Second))
		_, err = orch.Cycle(ctx, farm.ID)
		require.NoError(t, err)
		return local, orch
	}

	deviceA, orchA := openSynced("device-a")
	deviceB, orchB := openSynced("device-b")

	// Both edit offline; B's edit is later.
	editA := *animal
	editA.Tag = "BR-FROM-A"
	editA.Touch(base.Add(time.Minute))
	_, err = deviceA.Apply(ctx, table, farm.ID, &editA, store.TieWins)
	require.NoError(t, err)

	editB := *animal
	editB.Tag = "BR-FROM-B"
	editB.Touch(base.Add(2 * time.Minute))
	_, err = deviceB.Apply(ctx, table, farm.ID, &editB, store.TieWins)
	require.NoError(t, err)

	// A syncs first, then B, then A again to observe B's win.
	_, err = orchA.Cycle(ctx, farm.ID)
	require.NoError(t, err)
	_, err = orchB.Cycle(ctx, farm.ID)
	require.NoError(t, err)
	_, err = orchA.Cycle(ctx, farm.ID)
	require.NoError(t, err)

	for name, s := range map[string]*store.Store{"server": server, "device-a": deviceA, "device-b": deviceB} {
		got, err := s.Get(ctx, table, farm.ID, animal.ID)
		require.NoError(t, err, name)
		assert.Equal(t, "BR-FROM-B", got.(*domain.Cattle).Tag, "%s must converge on the newest write", name)
	}
}
