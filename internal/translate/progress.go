package translate

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressCallback receives progress events while batches are translated.
type ProgressCallback interface {
	// OnStart is called before the first batch with the total item count.
	OnStart(total int)

	// OnProgress is called as items complete.
	OnProgress(current, total int)

	// OnComplete is called after the last batch.
	OnComplete()
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(total int)             {}
func (NoOpProgressCallback) OnProgress(current, total int) {}
func (NoOpProgressCallback) OnComplete()                   {}

// ConsoleProgressCallback prints translation progress to a writer.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	updateInterval time.Duration
	lastUpdate     time.Time
	mutex          sync.Mutex
}

// NewConsoleProgressCallback creates a console progress reporter.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithUpdateInterval sets how frequently progress lines are emitted.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d (0.0%%)\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now

	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	_, _ = fmt.Fprintf(c.writer, "%s%d/%d (%.1f%%)\n", c.prefix, current, total, pct)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "%sCompleted\n", c.prefix)
}
