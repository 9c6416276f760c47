package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

func TestSnapshotManager_SaveAndLoad(t *testing.T) {
	sm := NewSnapshotManager(filepath.Join(t.TempDir(), "snapshots"))

	long, err := domain.NewLongPairState("paper", "BTCUSDT", domain.NewCurrencyCapital(100), domain.PairStateOptions{})
	require.NoError(t, err)
	long.TriggerRetry()
	closing, err := domain.NewClosePairState("paper", "ETHUSDT", domain.PairStateOptions{Market: true})
	require.NoError(t, err)

	base := time.UnixMilli(1_700_000_000_000)
	_, err = sm.Save(CreateSnapshot(base, []*domain.PairState{long}))
	require.NoError(t, err)
	_, err = sm.Save(CreateSnapshot(base.Add(time.Second), []*domain.PairState{long, closing}))
	require.NoError(t, err)

	snap, err := sm.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, base.Add(time.Second).UnixMilli(), snap.TsUnixMilli)
	require.Len(t, snap.Pairs, 2)
	assert.Equal(t, "BTCUSDT", snap.Pairs[0].Symbol)
	assert.Equal(t, domain.StateLong, snap.Pairs[0].State)
	assert.Equal(t, 1, snap.Pairs[0].Retries)
	assert.Equal(t, domain.StateClose, snap.Pairs[1].State)
}

func TestSnapshotManager_LoadLatestEmpty(t *testing.T) {
	sm := NewSnapshotManager(filepath.Join(t.TempDir(), "missing"))

	snap, err := sm.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotManager_Cleanup(t *testing.T) {
	dir := t.TempDir()
	sm := NewSnapshotManager(dir)

	base := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 5; i++ {
		_, err := sm.Save(CreateSnapshot(base.Add(time.Duration(i)*time.Second), nil))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.NoError(t, sm.Cleanup(2))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	snap, err := sm.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, base.Add(4*time.Second).UnixMilli(), snap.TsUnixMilli)
}
