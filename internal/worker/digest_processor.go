package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"finboard/internal/core"
)

// InsightSource yields the current spending insights.
type InsightSource interface {
	Insights(ctx context.Context) ([]string, error)
}

// DigestProcessorConfig holds configuration for the digest processor
type DigestProcessorConfig struct {
	// Interval is how often insights are recomputed (default: 6h)
	Interval time.Duration
}

func DefaultDigestProcessorConfig() DigestProcessorConfig {
	return DigestProcessorConfig{Interval: 6 * time.Hour}
}

// DigestProcessor periodically posts the current insights as an info
// notification. A digest is only posted when the insights changed since
// the last one.
type DigestProcessor struct {
	source   InsightSource
	notifier Notifier
	config   DigestProcessorConfig

	mu      sync.Mutex
	running bool
	last    []string
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewDigestProcessor(source InsightSource, notifier Notifier, config DigestProcessorConfig) *DigestProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultDigestProcessorConfig().Interval
	}
	return &DigestProcessor{source: source, notifier: notifier, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (p *DigestProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("digest processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Digest processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (p *DigestProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Digest processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Digest processor stop timed out")
		return ctx.Err()
	}
}

func (p *DigestProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *DigestProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Digest run failed", "error", err)
			}
		}
	}
}

// RunOnce computes insights and posts a digest if they changed. It reports
// whether a notification was created.
func (p *DigestProcessor) RunOnce(ctx context.Context) (bool, error) {
	insights, err := p.source.Insights(ctx)
	if err != nil {
		return false, fmt.Errorf("compute insights: %w", err)
	}

	p.mu.Lock()
	unchanged := slices.Equal(insights, p.last)
	p.mu.Unlock()
	if unchanged || len(insights) == 0 {
		return false, nil
	}

	if _, err := p.notifier.Notify(ctx, core.Info, "Your Spending Digest", strings.Join(insights, " ")); err != nil {
		return false, fmt.Errorf("store digest: %w", err)
	}

	p.mu.Lock()
	p.last = slices.Clone(insights)
	p.mu.Unlock()

	slog.InfoContext(ctx, "Spending digest posted", "insights", len(insights))
	return true, nil
}
