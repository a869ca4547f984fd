package main

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is the in-memory result set the dashboard reads from. It is
// replaced wholesale on each successful refresh; a failed background refresh
// keeps the previous mentions and only records the error.
type Snapshot struct {
	Mentions  []Mention
	FetchedAt time.Time
	Err       error
}

// PollResult tracks per-cycle archive counters, one per skip reason.
type PollResult struct {
	TotalRows      int
	Archived       int
	AlreadyTracked int
}

// Poller owns the fetch → parse → normalize → archive → aggregate cycle and
// its timer. Refresh completions are applied last-write-wins: each cycle
// takes a generation number before fetching, and a completion older than the
// latest applied one, or arriving after Stop, is discarded. That closes the
// stale-write window a slow request would otherwise leave open.
type Poller struct {
	cfg Config
	db  *sql.DB

	gen int64 // atomic; generation handed to the next refresh

	mu      sync.Mutex
	snap    Snapshot
	applied int64 // generation of the applied snapshot
	stopped bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewPoller(cfg Config, db *sql.DB) *Poller {
	return &Poller{cfg: cfg, db: db}
}

// Snapshot returns the current result set. The slice is shared; callers
// treat it as read-only.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Start runs an immediate refresh and then refreshes on the configured
// interval until Stop. Safe to call once; later calls are no-ops, as is
// Start on an already-stopped poller.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		p.done = make(chan struct{})
		interval := p.cfg.PollInterval()
		log.Printf("poller started interval=%s sheet=%s", interval, p.cfg.SheetID)

		go func() {
			defer close(p.done)
			p.refreshAndLog(ctx)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.refreshAndLog(ctx)
				}
			}
		}()
	})
}

// Stop cancels the refresh loop and any in-flight request, then waits for
// the loop goroutine. After Stop no refresh result is ever applied.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	log.Println("poller stopped")
}

func (p *Poller) refreshAndLog(ctx context.Context) {
	result, err := p.RefreshOnce(ctx)
	if err != nil {
		log.Printf("refresh error: %v", err)
		return
	}
	log.Printf("refresh complete rows=%d archived=%d tracked=%d",
		result.TotalRows, result.Archived, result.AlreadyTracked)

	if p.cfg.LLMConfigured() && p.db != nil && result.Archived > 0 {
		if auditErr := RunToneAudit(ctx, p.cfg, p.db); auditErr != nil {
			log.Printf("tone audit error: %v", auditErr)
		}
	}
}

// RefreshOnce executes one full pipeline cycle. On fetch failure the previous
// snapshot's mentions stay visible and only the error is recorded.
func (p *Poller) RefreshOnce(ctx context.Context) (PollResult, error) {
	gen := atomic.AddInt64(&p.gen, 1)

	text, err := FetchSheetCSV(ctx, p.cfg)
	if err != nil {
		p.applyError(gen, err)
		return PollResult{}, err
	}

	mentions := MentionsFromCSV(text, p.cfg.FallbackLabel)
	result := PollResult{TotalRows: len(mentions)}

	if p.db != nil {
		result.Archived, result.AlreadyTracked = p.archive(mentions)
	}

	p.apply(gen, Snapshot{Mentions: mentions, FetchedAt: time.Now()})
	return result, nil
}

// archive inserts mentions not seen in any earlier poll, deduped by link (or
// date+headline). DB errors are logged and skip the row; archiving is
// best-effort and never fails the refresh.
func (p *Poller) archive(mentions []Mention) (archived, tracked int) {
	var fresh []Mention
	for _, m := range mentions {
		exists, err := MentionKeyExists(p.db, m.DedupeKey())
		if err != nil {
			log.Printf("Error checking mention existence: %v", err)
			continue
		}
		if exists {
			tracked++
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0, tracked
	}
	inserted, err := InsertMentions(p.db, fresh)
	if err != nil {
		log.Printf("Error archiving mentions: %v", err)
	}
	return inserted, tracked
}

func (p *Poller) apply(gen int64, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || gen <= p.applied {
		return
	}
	p.applied = gen
	p.snap = snap
}

func (p *Poller) applyError(gen int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || gen <= p.applied {
		return
	}
	p.applied = gen
	p.snap.Err = err
}
