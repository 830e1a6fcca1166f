package audio

import "sync"

// IngestBuffer accumulates samples from the audio callback until the
// pipeline drains them. Append holds the lock only for the slice append.
type IngestBuffer struct {
	mu      sync.Mutex
	samples []float32
}

func NewIngestBuffer() *IngestBuffer {
	return &IngestBuffer{}
}

// Append adds already normalized samples.
func (b *IngestBuffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// Drain swaps the buffered samples with an empty buffer and returns them.
func (b *IngestBuffer) Drain() []float32 {
	b.mu.Lock()
	out := b.samples
	b.samples = nil
	b.mu.Unlock()
	return out
}

// Len reports the number of buffered samples.
func (b *IngestBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
