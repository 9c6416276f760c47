package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

const snapshotPattern = "pairs_%d.json"

// Snapshot is the set of pair states alive at one point in time.
type Snapshot struct {
	TsUnixMilli int64                      `json:"ts"`
	Pairs       []domain.PairStateSnapshot `json:"pairs"`
}

// SnapshotManager writes pair snapshots as JSON files into one directory.
type SnapshotManager struct {
	dir string
}

func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// CreateSnapshot copies the given states into a snapshot taken at now.
func CreateSnapshot(now time.Time, states []*domain.PairState) *Snapshot {
	pairs := make([]domain.PairStateSnapshot, 0, len(states))
	for _, s := range states {
		pairs = append(pairs, s.Snapshot())
	}
	return &Snapshot{TsUnixMilli: now.UnixMilli(), Pairs: pairs}
}

// Save writes snap to disk and returns the file path.
func (sm *SnapshotManager) Save(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(sm.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(sm.dir, fmt.Sprintf(snapshotPattern, snap.TsUnixMilli))
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.Int("pairs", len(snap.Pairs)),
		slog.String("path", path))
	return path, nil
}

// LoadLatest returns the newest snapshot, or nil when none exists.
func (sm *SnapshotManager) LoadLatest() (*Snapshot, error) {
	files, err := sm.list()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Cleanup removes all but the newest keep snapshots.
func (sm *SnapshotManager) Cleanup(keep int) error {
	files, err := sm.list()
	if err != nil {
		return err
	}
	for i := keep; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("Failed to remove old snapshot",
				slog.String("path", files[i].path),
				slog.Any("error", err))
		}
	}
	return nil
}

type snapshotFile struct {
	path string
	ts   int64
}

// list returns snapshot files newest first.
func (sm *SnapshotManager) list() ([]snapshotFile, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var files []snapshotFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), snapshotPattern, &ts); err != nil {
			continue
		}
		files = append(files, snapshotFile{path: filepath.Join(sm.dir, entry.Name()), ts: ts})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ts > files[j].ts })
	return files, nil
}
