package audio

import (
	"sync"
	"testing"
)

func TestIngestBufferDrainSwapsContents(t *testing.T) {
	t.Parallel()

	b := NewIngestBuffer()
	b.Append([]float32{1, 2})
	b.Append(nil)
	b.Append([]float32{3})
	if b.Len() != 3 {
		t.Fatalf("expected 3 buffered samples, got %d", b.Len())
	}

	got := b.Drain()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected drain %v", got)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer after drain")
	}
	if again := b.Drain(); len(again) != 0 {
		t.Fatalf("expected empty second drain, got %v", again)
	}
}

func TestIngestBufferConcurrentAppendAndDrainLosesNothing(t *testing.T) {
	t.Parallel()

	const writers = 8
	const perWriter = 500

	b := NewIngestBuffer()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append([]float32{float32(w*perWriter + i)})
			}
		}(w)
	}

	seen := make(map[float32]int, writers*perWriter)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collect := func() {
		for _, s := range b.Drain() {
			seen[s]++
		}
	}
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			collect()
		}
	}
	collect()

	if len(seen) != writers*perWriter {
		t.Fatalf("expected %d distinct samples, got %d", writers*perWriter, len(seen))
	}
	for s, n := range seen {
		if n != 1 {
			t.Fatalf("sample %v drained %d times", s, n)
		}
	}
}
