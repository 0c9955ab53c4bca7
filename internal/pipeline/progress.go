package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives page-level progress of a run.
type ProgressCallback interface {
	// OnStart is called once with the number of selected pages.
	OnStart(pages int)

	// OnPage is called after each page, whether it succeeded or not.
	OnPage(done, pages int)

	// OnStage announces a document-level stage such as "assets" or "partition".
	OnStage(name string)

	// OnPageError is called when a page is skipped.
	OnPageError(page int, err error)

	// OnComplete is called when the run has written its outputs.
	OnComplete()
}

// NoOpProgressCallback discards all progress.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)            {}
func (NoOpProgressCallback) OnPage(int, int)        {}
func (NoOpProgressCallback) OnStage(string)         {}
func (NoOpProgressCallback) OnPageError(int, error) {}
func (NoOpProgressCallback) OnComplete()            {}

// ConsoleProgressCallback draws a page bar on a terminal.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration
	lastUpdate     time.Time
	startTime      time.Time
	mu             sync.Mutex
}

// NewConsoleProgressCallback writes to w, or stderr when w is nil.
func NewConsoleProgressCallback(w io.Writer, prefix string) *ConsoleProgressCallback {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         w,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithWidth sets the bar width in cells.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	if width > 0 {
		c.width = width
	}
	return c
}

// WithUpdateInterval limits how often the bar is redrawn.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(pages int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d pages\n", c.prefix, pages)
}

func (c *ConsoleProgressCallback) OnPage(done, pages int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && done < pages {
		return
	}
	c.lastUpdate = now
	c.draw(done, pages, now)
}

func (c *ConsoleProgressCallback) OnStage(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%s%s\n", c.prefix, name)
}

func (c *ConsoleProgressCallback) OnPageError(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%spage %d skipped: %v\n", c.prefix, page, err)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.writer, "%sdone in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) draw(done, pages int, now time.Time) {
	if pages <= 0 {
		return
	}
	filled := c.width * done / pages
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	line := fmt.Sprintf("\r%s[%s] %d/%d pages (%.1f%%)", c.prefix, bar, done, pages,
		float64(done)/float64(pages)*100)

	if elapsed := now.Sub(c.startTime); elapsed > 0 && done > 0 && done < pages {
		eta := time.Duration(float64(elapsed) * float64(pages-done) / float64(done))
		line += fmt.Sprintf(" ETA %v", eta.Round(time.Second))
	}
	_, _ = fmt.Fprint(c.writer, line)
}

// LogProgressCallback reports progress through slog, every interval pages.
type LogProgressCallback struct {
	logger    *slog.Logger
	level     slog.Level
	interval  int
	lastLog   int
	startTime time.Time
}

// NewLogProgressCallback uses slog.Default when logger is nil.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 5}
}

// WithInterval logs every n pages.
func (l *LogProgressCallback) WithInterval(n int) *LogProgressCallback {
	if n > 0 {
		l.interval = n
	}
	return l
}

func (l *LogProgressCallback) OnStart(pages int) {
	l.startTime = time.Now()
	l.lastLog = 0
	l.logger.Log(nil, l.level, "Extraction started", "pages", pages)
}

func (l *LogProgressCallback) OnPage(done, pages int) {
	if done-l.lastLog < l.interval && done != pages {
		return
	}
	l.lastLog = done
	l.logger.Log(nil, l.level, "Pages processed",
		"done", done,
		"pages", pages,
		"elapsed", time.Since(l.startTime).Round(time.Millisecond),
	)
}

func (l *LogProgressCallback) OnStage(name string) {
	l.logger.Log(nil, l.level, "Extraction stage", "stage", name)
}

func (l *LogProgressCallback) OnPageError(page int, err error) {
	l.logger.Warn("Page skipped", "page", page, "error", err)
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Log(nil, l.level, "Extraction completed", "elapsed", time.Since(l.startTime).Round(time.Millisecond))
}

// MultiProgressCallback fans progress out to several callbacks.
type MultiProgressCallback []ProgressCallback

func (m MultiProgressCallback) OnStart(pages int) {
	for _, cb := range m {
		cb.OnStart(pages)
	}
}

func (m MultiProgressCallback) OnPage(done, pages int) {
	for _, cb := range m {
		cb.OnPage(done, pages)
	}
}

func (m MultiProgressCallback) OnStage(name string) {
	for _, cb := range m {
		cb.OnStage(name)
	}
}

func (m MultiProgressCallback) OnPageError(page int, err error) {
	for _, cb := range m {
		cb.OnPageError(page, err)
	}
}

func (m MultiProgressCallback) OnComplete() {
	for _, cb := range m {
		cb.OnComplete()
	}
}
