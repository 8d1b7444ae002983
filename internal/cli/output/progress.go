package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress reports how many keys a scan has visited. With a known total
// (from DBSIZE) it draws a bar; otherwise it prints a running count.
type Progress struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	start   time.Time
	mu      sync.Mutex
}

// NewProgress creates a progress line. total may be 0 when unknown.
func NewProgress(w io.Writer, title string, total int64) *Progress {
	return &Progress{
		w:     w,
		title: title,
		total: total,
		width: 30,
		start: time.Now(),
	}
}

// Add records n more visited keys.
func (p *Progress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Current returns the number of keys recorded.
func (p *Progress) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish prints the final line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) rate() float64 {
	secs := time.Since(p.start).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(p.current) / secs
}

func (p *Progress) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d keys (%.0f/s)", p.title, p.current, p.rate())
		return
	}

	// SCAN may return a key more than once, so clamp.
	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d keys)",
		p.title, bar, percent*100, p.current, p.total)
}
