package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress writes a single rewriting status line while a long re-embedding
// run works through its documents, throttled so the line only refreshes
// after every step completed documents.
type Progress struct {
	mu sync.Mutex

	w     io.Writer
	total int
	step  int

	done       int
	nextReport int
	began      time.Time
	running    bool
}

// NewProgress tracks completion of total documents on w, refreshing the
// status line every step documents. Typically w is os.Stderr.
func NewProgress(w io.Writer, total, step int) *Progress {
	return &Progress{w: w, total: total, step: step}
}

// Begin starts (or restarts) the clock and zeroes the count.
func (p *Progress) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.began = time.Now()
	p.done = 0
	p.nextReport = p.step
	p.running = true
}

// Add records n more completed documents, refreshing the status line when
// the count crosses the next report threshold. Counts past total are capped.
// Before Begin, Add is a no-op.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.done += n
	if p.done > p.total {
		p.done = p.total
	}

	if p.done >= p.nextReport {
		p.print()
		for p.nextReport <= p.done {
			p.nextReport += p.step
		}
	}
}

// Done forces the count to total, prints the final line, and ends it with a
// newline so later output starts clean.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.done = p.total
	p.print()
	fmt.Fprintln(p.w)
}

// Elapsed reports time since Begin, zero beforehand.
func (p *Progress) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

// print rewrites the status line. Callers hold the lock.
func (p *Progress) print() {
	elapsed := time.Since(p.began).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}

	fmt.Fprintf(p.w, "\rre-embedded %d/%d (%.1f%%) %.1f docs/s", p.done, p.total, pct, rate)
}
