package usecase

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
)

// ScreenConfig bounds an aggregation pass. Zero values mean no concurrency
// cap and no per-window timeout.
type ScreenConfig struct {
	Concurrency   int
	WindowTimeout time.Duration
	TempDir       string
}

// ScreenAggregator enumerates windows, OCRs each one concurrently and joins
// the results under a character budget.
type ScreenAggregator struct {
	lister ports.WindowLister
	task   windowTask
	cfg    ScreenConfig
}

func NewScreenAggregator(lister ports.WindowLister, capturer ports.WindowCapturer, ocr ports.TextRecognizer, cfg ScreenConfig) *ScreenAggregator {
	return &ScreenAggregator{
		lister: lister,
		task:   windowTask{capturer: capturer, ocr: ocr, tempDir: cfg.TempDir},
		cfg:    cfg,
	}
}

// ListWindows returns the windows the next pass would visit.
func (a *ScreenAggregator) ListWindows(ctx context.Context) ([]domain.Window, error) {
	return a.lister.ListWindows(ctx)
}

// GetScreenText runs one aggregation pass. Blocks are "<title>:\n<content>\n\n"
// in dispatch order; the pass stops at the first block that would push the
// total past maxChars.
func (a *ScreenAggregator) GetScreenText(ctx context.Context, maxChars int) (string, error) {
	passID := uuid.NewString()
	started := time.Now()

	windows, err := a.lister.ListWindows(ctx)
	if err != nil {
		return "", fmt.Errorf("list windows: %w", err)
	}

	contents := a.recognizeAll(ctx, passID, windows)

	text, included := joinWindowBlocks(contents, maxChars)
	logging.Debugw("screen aggregation finished",
		"pass_id", passID,
		"windows", len(windows),
		"recognized", len(contents),
		"included", included,
		"chars", utf8.RuneCountInString(text),
		"took", time.Since(started),
	)
	return text, nil
}

func (a *ScreenAggregator) recognizeAll(ctx context.Context, passID string, windows []domain.Window) []domain.WindowContent {
	results := make([]*domain.WindowContent, len(windows))

	var g errgroup.Group
	if a.cfg.Concurrency > 0 {
		g.SetLimit(a.cfg.Concurrency)
	}
	for i, window := range windows {
		i, window := i, window
		g.Go(func() error {
			content, err := a.runWindow(ctx, window)
			if err != nil {
				logging.Warnw("window skipped",
					"pass_id", passID,
					"handle", window.Handle,
					"title", window.Title,
					"error", err,
				)
				return nil
			}
			results[i] = &content
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.WindowContent, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

type windowResult struct {
	content domain.WindowContent
	err     error
}

// runWindow bounds one window by WindowTimeout. Capture and OCR providers may
// not observe ctx, so the task runs on its own goroutine and a late result is
// discarded.
func (a *ScreenAggregator) runWindow(ctx context.Context, window domain.Window) (domain.WindowContent, error) {
	if a.cfg.WindowTimeout <= 0 {
		return a.task.run(ctx, window)
	}

	taskCtx, cancel := context.WithTimeout(ctx, a.cfg.WindowTimeout)
	defer cancel()

	done := make(chan windowResult, 1)
	go func() {
		content, err := a.task.run(taskCtx, window)
		done <- windowResult{content: content, err: err}
	}()

	select {
	case r := <-done:
		return r.content, r.err
	case <-taskCtx.Done():
		return domain.WindowContent{}, fmt.Errorf("window timed out: %w", taskCtx.Err())
	}
}

func joinWindowBlocks(contents []domain.WindowContent, maxChars int) (string, int) {
	var (
		out   []byte
		chars int
	)
	for i, c := range contents {
		block := c.Title + ":\n" + c.Content + "\n\n"
		n := utf8.RuneCountInString(block)
		if chars+n > maxChars {
			return string(out), i
		}
		out = append(out, block...)
		chars += n
	}
	return string(out), len(contents)
}
