// Package reveal paces the display of an already final text, one code point
// per tick. It never feeds back into the transcript.
package reveal

import (
	"context"
	"time"
)

// DefaultTick is the pause between two revealed code points.
const DefaultTick = 15 * time.Millisecond

// Typewriter holds the progress of one reveal.
type Typewriter struct {
	runes []rune
	pos   int
}

// New starts a reveal of text with nothing shown yet.
func New(text string) *Typewriter {
	return &Typewriter{runes: []rune(text)}
}

// Step shows one more code point and returns the visible prefix.
func (t *Typewriter) Step() (string, bool) {
	if t.pos < len(t.runes) {
		t.pos++
	}
	return t.Prefix(), t.Done()
}

// Prefix returns the currently visible text.
func (t *Typewriter) Prefix() string {
	return string(t.runes[:t.pos])
}

// Done reports whether the whole text is visible.
func (t *Typewriter) Done() bool {
	return t.pos >= len(t.runes)
}

// Text returns the full text being revealed.
func (t *Typewriter) Text() string {
	return string(t.runes)
}

// Reveal emits growing prefixes of text, one per tick, and closes the
// channel when the text is complete or ctx is done. A non-positive tick
// uses DefaultTick.
func Reveal(ctx context.Context, text string, tick time.Duration) <-chan string {
	if tick <= 0 {
		tick = DefaultTick
	}
	out := make(chan string)
	go func() {
		defer close(out)
		tw := New(text)
		if tw.Done() {
			return
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			prefix, done := tw.Step()
			select {
			case out <- prefix:
			case <-ctx.Done():
				return
			}
			if done {
				return
			}
		}
	}()
	return out
}
