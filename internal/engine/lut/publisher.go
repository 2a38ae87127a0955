package lut

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// ErrUpload wraps failures reported by an Uploader.
var ErrUpload = errors.New("lookup table upload failed")

// Uploader hands a finished table to the shading stage. rows are the rows
// that differ from the previously published table. Upload must either fully
// succeed or leave the consumer on the previous table.
type Uploader interface {
	Upload(t *Table, rows RowRange) error
}

// Publisher owns the single active rebuild and the handoff to readers.
//
// Rebuilds may run on any goroutine but never concurrently with each other.
// A finished rebuild waits in a ready slot until Commit uploads it; a newer
// rebuild replaces a ready table that was never committed, so the most recent
// request always wins. Commit must be called from the goroutine that owns the
// upload target (the GL thread for GPU uploaders).
type Publisher struct {
	builder  *Builder
	uploader Uploader
	log      *zap.Logger

	buildMu sync.Mutex // one rebuild at a time

	mu      sync.Mutex
	current *Table
	ready   *Table
	retired []*Table // previously current, may still have readers

	reqMu   sync.Mutex
	pending *request
	wake    chan struct{}
}

type request struct {
	attrs map[regionid.ID]Attribute
	sel   Selection
}

// NewPublisher returns a publisher whose current table is all sentinel
// cells. uploader may be nil when the consumer reads tables directly.
func NewPublisher(b *Builder, uploader Uploader) *Publisher {
	return &Publisher{
		builder:  b,
		uploader: uploader,
		log:      logger.Named("lut"),
		current:  NewTable(b.Dim()),
		wake:     make(chan struct{}, 1),
	}
}

// Builder returns the underlying builder.
func (p *Publisher) Builder() *Builder { return p.builder }

// Publish rebuilds and commits synchronously. On upload failure the previous
// table stays current and the error is returned.
func (p *Publisher) Publish(attrs map[regionid.ID]Attribute, sel Selection) (*Table, error) {
	p.rebuild(attrs, sel)
	if _, err := p.Commit(); err != nil {
		return p.Current(), err
	}
	return p.Current(), nil
}

// Request queues an asynchronous rebuild. Only the latest request is kept;
// Run picks it up. The caller must not mutate attrs or sel afterwards.
func (p *Publisher) Request(attrs map[regionid.ID]Attribute, sel Selection) {
	p.reqMu.Lock()
	p.pending = &request{attrs: attrs, sel: sel}
	p.reqMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run services Request calls until ctx is done. Finished tables wait for Commit.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
		}

		p.reqMu.Lock()
		req := p.pending
		p.pending = nil
		p.reqMu.Unlock()

		if req != nil {
			p.rebuild(req.attrs, req.sel)
		}
	}
}

// rebuild builds into a buffer no reader holds and parks it as ready.
func (p *Publisher) rebuild(attrs map[regionid.ID]Attribute, sel Selection) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	start := time.Now()
	dst := p.takeSpare()
	stats := p.builder.RebuildInto(dst, attrs, sel)

	p.mu.Lock()
	if p.ready != nil {
		// Superseded before it was committed.
		p.retired = append(p.retired, p.ready)
	}
	p.ready = dst
	p.mu.Unlock()

	if stats.Skipped > 0 {
		p.log.Warn("skipped unaddressable region ids",
			zap.Int("skipped", stats.Skipped),
			zap.Uint32("max_id", uint32(p.builder.MaxID())),
		)
	}
	p.log.Debug("lut rebuilt",
		zap.Int("written", stats.Written),
		zap.Int("selected", stats.Selected),
		zap.Duration("took", time.Since(start)),
	)
}

// Commit uploads the ready table, if any, and makes it current.
// It reports whether a new table was published.
func (p *Publisher) Commit() (bool, error) {
	p.mu.Lock()
	next := p.ready
	p.ready = nil
	prev := p.current
	p.mu.Unlock()

	if next == nil {
		return false, nil
	}

	rows := next.DirtyRows(prev)
	if p.uploader != nil && !rows.Empty() {
		if err := p.uploader.Upload(next, rows); err != nil {
			p.mu.Lock()
			p.retired = append(p.retired, next)
			p.mu.Unlock()
			p.log.Error("lut upload failed, keeping previous table",
				zap.Uint64("generation", prev.generation),
				zap.Error(err),
			)
			return false, fmt.Errorf("%w: %w", ErrUpload, err)
		}
	}

	next.generation = prev.generation + 1

	p.mu.Lock()
	p.current = next
	p.retired = append(p.retired, prev)
	p.mu.Unlock()

	p.log.Debug("lut published",
		zap.Uint64("generation", next.generation),
		zap.Int("first_row", rows.First),
		zap.Int("last_row", rows.Last),
	)
	return true, nil
}

// Current returns the last fully published table without pinning it.
// Use Acquire when the table is read for longer than a single lookup.
func (p *Publisher) Current() *Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Acquire pins the current table for a frame. The table's buffer is not
// reused until release is called.
func (p *Publisher) Acquire() (*Table, func()) {
	p.mu.Lock()
	t := p.current
	t.readers.Add(1)
	p.mu.Unlock()

	var once sync.Once
	return t, func() {
		once.Do(func() { t.readers.Add(-1) })
	}
}

// takeSpare returns a retired table with no readers, or a new one.
func (p *Publisher) takeSpare() *Table {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, t := range p.retired {
		if t.readers.Load() == 0 && t.dim == p.builder.Dim() {
			p.retired = append(p.retired[:i], p.retired[i+1:]...)
			return t
		}
	}
	return NewTable(p.builder.Dim())
}
