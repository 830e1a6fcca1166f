package transcript

import "sync"

// Rolling is a transcript capped at a number of Unicode code points. Once the
// cap is exceeded only the most recent characters are kept.
type Rolling struct {
	mu   sync.Mutex
	max  int
	text []rune
}

func NewRolling(maxChars int) *Rolling {
	if maxChars < 0 {
		maxChars = 0
	}
	return &Rolling{max: maxChars}
}

// Append adds text and trims the oldest characters beyond the cap.
func (r *Rolling) Append(text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.text = append(r.text, []rune(text)...)
	if over := len(r.text) - r.max; over > 0 {
		r.text = append(r.text[:0], r.text[over:]...)
	}
}

func (r *Rolling) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.text)
}

// Reset empties the transcript.
func (r *Rolling) Reset() {
	r.mu.Lock()
	r.text = nil
	r.mu.Unlock()
}

// Len reports the transcript length in characters.
func (r *Rolling) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.text)
}

// Max reports the character cap.
func (r *Rolling) Max() int {
	return r.max
}
