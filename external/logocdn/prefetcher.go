package logocdn

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/scorewatch/scorewatch/internal/platform/cache"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/valyala/fasthttp"
)

const (
	defaultWorkers     = 4
	defaultFetchWindow = 15 * time.Second
	maxLogoBytes       = 2 << 20
)

type Config struct {
	// Dir is the directory downloaded logos are written to.
	Dir     string
	Workers int
	Timeout time.Duration
	Logger  *logging.Logger
}

// Prefetcher downloads team logos in the background so they are already on
// disk by the time a notification referencing them fires. Downloads are
// de-duplicated by logo ID and never block the caller.
type Prefetcher struct {
	dir     string
	timeout time.Duration
	logger  *logging.Logger
	pool    *ants.Pool
	httpc   *fasthttp.Client
	seen    *cache.Store

	closeOnce sync.Once
}

func NewPrefetcher(cfg Config) (*Prefetcher, error) {
	if cfg.Dir == "" {
		return nil, crerr.New("logo directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, crerr.Wrap(err, "create logo directory")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, crerr.Wrap(err, "create logo worker pool")
	}

	return &Prefetcher{
		dir:     cfg.Dir,
		timeout: timeout,
		logger:  logger,
		pool:    pool,
		httpc: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxLogoBytes,
		},
		seen: cache.NewStore(0),
	}, nil
}

// Prefetch schedules a download. Already-downloaded and already-scheduled
// logos are skipped; a saturated pool drops the request rather than block.
func (p *Prefetcher) Prefetch(url, logoID string) {
	if url == "" || logoID == "" {
		return
	}

	ctx := context.Background()
	if _, ok := p.seen.Get(ctx, logoID); ok {
		return
	}
	if _, err := os.Stat(p.Path(logoID)); err == nil {
		p.seen.Set(ctx, logoID, true)
		return
	}
	p.seen.Set(ctx, logoID, true)

	if err := p.pool.Submit(func() { p.download(url, logoID) }); err != nil {
		// Let a later poll retry once the pool has room.
		p.seen.Delete(ctx, logoID)
		p.logger.Debug("logo prefetch dropped", "logo_id", logoID, "error", err)
	}
}

// Path returns the on-disk location a logo ID resolves to, whether or not
// the file exists yet.
func (p *Prefetcher) Path(logoID string) string {
	return filepath.Join(p.dir, logoID+".png")
}

func (p *Prefetcher) download(url, logoID string) {
	status, body, err := p.httpc.GetTimeout(nil, url, p.timeout)
	if err != nil || status != fasthttp.StatusOK || len(body) == 0 {
		p.seen.Delete(context.Background(), logoID)
		p.logger.Debug("logo download failed", "logo_id", logoID, "status", status, "error", err)
		return
	}

	tmp := p.Path(logoID) + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		p.seen.Delete(context.Background(), logoID)
		p.logger.Warn("write logo file", "logo_id", logoID, "error", err)
		return
	}
	if err := os.Rename(tmp, p.Path(logoID)); err != nil {
		_ = os.Remove(tmp)
		p.seen.Delete(context.Background(), logoID)
		p.logger.Warn("publish logo file", "logo_id", logoID, "error", err)
		return
	}
}

// Close stops the worker pool. In-flight downloads finish; queued ones are
// discarded.
func (p *Prefetcher) Close() {
	p.closeOnce.Do(func() {
		p.pool.Release()
	})
}
