package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/valyala/bytebufferpool"
)

const defaultCoalesceWindow = 120 * time.Second

type snapshotDocument struct {
	Timestamp int64         `json:"timestamp"`
	Events    []event.Event `json:"events"`
}

// SnapshotRepository persists the event list as a single JSON document.
// Save coalesces: a write within the coalesce window of the previous
// successful one is skipped while data is non-empty, keeping poll ticks from
// hammering the disk. Writes go through a temp file and rename so a crash
// mid-write never leaves a torn snapshot.
type SnapshotRepository struct {
	path     string
	coalesce time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastWrite time.Time
}

func NewSnapshotRepository(path string, coalesce time.Duration) (*SnapshotRepository, error) {
	if path == "" {
		return nil, crerr.New("snapshot path is required")
	}
	if coalesce <= 0 {
		coalesce = defaultCoalesceWindow
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, crerr.Wrap(err, "create snapshot directory")
	}
	return &SnapshotRepository{
		path:     path,
		coalesce: coalesce,
		now:      time.Now,
	}, nil
}

// Load reads the snapshot written by a previous run. A missing file returns
// an empty list; the caller treats corruption as non-fatal.
func (r *SnapshotRepository) Load(_ context.Context) ([]event.Event, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, crerr.Wrap(err, "read snapshot file")
	}

	var doc snapshotDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, crerr.Wrap(err, "decode snapshot file")
	}
	return doc.Events, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, items []event.Event) error {
	r.mu.Lock()
	if len(items) > 0 && !r.lastWrite.IsZero() && r.now().Sub(r.lastWrite) < r.coalesce {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.Flush(ctx, items)
}

// Flush writes unconditionally, bypassing the coalesce window. Used at
// shutdown so the final state always lands.
func (r *SnapshotRepository) Flush(_ context.Context, items []event.Event) error {
	doc := snapshotDocument{
		Timestamp: r.now().Unix(),
		Events:    items,
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return crerr.Wrap(err, "encode snapshot")
	}
	_, _ = buf.Write(raw)

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, buf.B, 0o644); err != nil {
		return crerr.Wrap(err, "write snapshot temp file")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return crerr.Wrap(err, "publish snapshot file")
	}

	r.mu.Lock()
	r.lastWrite = r.now()
	r.mu.Unlock()
	return nil
}
