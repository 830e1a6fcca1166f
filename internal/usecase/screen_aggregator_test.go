package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ambientctx/internal/domain"
)

func TestScreenAggregatorStopsAtFirstOverflowingBlock(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{
		{Handle: 1, Title: "W1"},
		{Handle: 2, Title: "W2"},
		{Handle: 3, Title: "W3"},
	}}
	ocr := &fakeOCR{
		languages: []string{"eng", "deu"},
		byWidth: map[int][]string{
			1: {"short"},
			2: {strings.Repeat("x", 100)},
			3: {"tiny"},
		},
	}
	aggregator := NewScreenAggregator(lister, &fakeCapturer{}, ocr, ScreenConfig{TempDir: t.TempDir()})

	got, err := aggregator.GetScreenText(context.Background(), 40)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	want := "W1:\nshort\n\n\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if utf8.RuneCountInString(got) > 40 {
		t.Fatalf("output exceeds budget")
	}
	for _, lang := range ocr.langs {
		if lang != "eng" {
			t.Fatalf("expected first OCR language, got %q", lang)
		}
	}
}

func TestScreenAggregatorKeepsDispatchOrder(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{
		{Handle: 1, Title: "slow"},
		{Handle: 2, Title: "fast"},
	}}
	capturer := &fakeCapturer{delay: map[uintptr]time.Duration{1: 50 * time.Millisecond}}
	ocr := &fakeOCR{
		languages: []string{"eng"},
		byWidth:   map[int][]string{1: {"a", "b"}, 2: {"c"}},
	}
	aggregator := NewScreenAggregator(lister, capturer, ocr, ScreenConfig{TempDir: t.TempDir()})

	got, err := aggregator.GetScreenText(context.Background(), 4000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	want := "slow:\na\nb\n\n\nfast:\nc\n\n\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestScreenAggregatorFailingWindowDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{
		{Handle: 1, Title: "ok-1"},
		{Handle: 2, Title: "broken"},
		{Handle: 3, Title: "ok-3"},
	}}
	capturer := &fakeCapturer{fail: map[uintptr]error{2: errors.New("PrintWindow failed")}}
	ocr := &fakeOCR{
		languages: []string{"eng"},
		byWidth:   map[int][]string{1: {"one"}, 2: {"never"}, 3: {"three"}},
	}
	aggregator := NewScreenAggregator(lister, capturer, ocr, ScreenConfig{TempDir: t.TempDir()})

	got, err := aggregator.GetScreenText(context.Background(), 4000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	want := "ok-1:\none\n\n\nok-3:\nthree\n\n\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestScreenAggregatorNoLanguageYieldsNothing(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{{Handle: 1, Title: "W"}}}
	aggregator := NewScreenAggregator(lister, &fakeCapturer{}, &fakeOCR{}, ScreenConfig{TempDir: t.TempDir()})

	got, err := aggregator.GetScreenText(context.Background(), 4000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected no content, got %q", got)
	}
}

func TestScreenAggregatorEnumerationError(t *testing.T) {
	t.Parallel()

	boom := errors.New("EnumWindows failed")
	aggregator := NewScreenAggregator(&fakeWindowLister{err: boom}, &fakeCapturer{}, &fakeOCR{}, ScreenConfig{})

	if _, err := aggregator.GetScreenText(context.Background(), 4000); !errors.Is(err, boom) {
		t.Fatalf("expected enumeration error, got %v", err)
	}
}

func TestScreenAggregatorRemovesTempImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lister := &fakeWindowLister{windows: []domain.Window{{Handle: 1, Title: "W1"}, {Handle: 2, Title: "W2"}}}
	ocr := &fakeOCR{languages: []string{"eng"}, byWidth: map[int][]string{1: {"a"}, 2: {"b"}}}
	aggregator := NewScreenAggregator(lister, &fakeCapturer{}, ocr, ScreenConfig{TempDir: dir})

	if _, err := aggregator.GetScreenText(context.Background(), 4000); err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(ocr.paths) != 2 {
		t.Fatalf("expected 2 OCR calls, got %d", len(ocr.paths))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp images removed, found %d", len(entries))
	}
}

func TestScreenAggregatorConcurrencyCap(t *testing.T) {
	t.Parallel()

	var windows []domain.Window
	delays := map[uintptr]time.Duration{}
	for i := 1; i <= 6; i++ {
		windows = append(windows, domain.Window{Handle: uintptr(i), Title: "W"})
		delays[uintptr(i)] = 20 * time.Millisecond
	}
	capturer := &fakeCapturer{delay: delays}
	aggregator := NewScreenAggregator(&fakeWindowLister{windows: windows}, capturer, &fakeOCR{languages: []string{"eng"}}, ScreenConfig{
		Concurrency: 2,
		TempDir:     t.TempDir(),
	})

	if _, err := aggregator.GetScreenText(context.Background(), 4000); err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if capturer.maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent captures, saw %d", capturer.maxSeen)
	}
}

func TestScreenAggregatorWindowTimeout(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{{Handle: 1, Title: "hung"}, {Handle: 2, Title: "ok"}}}
	capturer := &fakeCapturer{delay: map[uintptr]time.Duration{1: 5 * time.Second}}
	ocr := &fakeOCR{languages: []string{"eng"}, byWidth: map[int][]string{2: {"fine"}}}
	aggregator := NewScreenAggregator(lister, capturer, ocr, ScreenConfig{
		WindowTimeout: 30 * time.Millisecond,
		TempDir:       t.TempDir(),
	})

	started := time.Now()
	got, err := aggregator.GetScreenText(context.Background(), 4000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if time.Since(started) > 2*time.Second {
		t.Fatalf("expected hung window to be cut off by the timeout")
	}
	if got != "ok:\nfine\n\n\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestScreenAggregatorWindowTimeoutWithBlockingCapturer(t *testing.T) {
	t.Parallel()

	lister := &fakeWindowLister{windows: []domain.Window{{Handle: 1, Title: "hung"}, {Handle: 2, Title: "ok"}}}
	capturer := &fakeCapturer{stall: map[uintptr]time.Duration{1: 2 * time.Second}}
	ocr := &fakeOCR{languages: []string{"eng"}, byWidth: map[int][]string{1: {"late"}, 2: {"fine"}}}
	aggregator := NewScreenAggregator(lister, capturer, ocr, ScreenConfig{
		WindowTimeout: 30 * time.Millisecond,
		TempDir:       t.TempDir(),
	})

	started := time.Now()
	got, err := aggregator.GetScreenText(context.Background(), 4000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if took := time.Since(started); took > time.Second {
		t.Fatalf("expected the pass to end at the timeout, took %s", took)
	}
	if got != "ok:\nfine\n\n\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestJoinWindowBlocksCountsCodePoints(t *testing.T) {
	t.Parallel()

	contents := []domain.WindowContent{{Title: "é", Content: "ü\n"}}
	// "é:\nü\n\n\n" is 7 code points and 9 bytes.
	got, included := joinWindowBlocks(contents, 7)
	if included != 1 || got != "é:\nü\n\n\n" {
		t.Fatalf("expected block to fit by code points, got %q (%d)", got, included)
	}
	if _, included := joinWindowBlocks(contents, 6); included != 0 {
		t.Fatalf("expected block to be omitted")
	}
}
