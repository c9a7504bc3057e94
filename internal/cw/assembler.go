// internal/cw/assembler.go
package cw

import (
	"strings"

	"github.com/ColonelBlimp/cwfft/internal/activity"
)

// WordSeparator is written between decoded words.
const WordSeparator = " "

// Assembler is the per-decode state machine that builds letters from runs.
// It is not safe for concurrent use; each decode needs its own instance.
type Assembler struct {
	timing Timing
	decode SymbolDecoder

	current strings.Builder // dots and dashes of the letter in progress
	out     strings.Builder
	endsSep bool // out ends with WordSeparator
}

// NewAssembler creates an assembler. A nil decode falls back to DecodeSymbol.
func NewAssembler(timing Timing, decode SymbolDecoder) *Assembler {
	if decode == nil {
		decode = DecodeSymbol
	}
	return &Assembler{timing: timing, decode: decode}
}

// Feed applies one run to the state machine.
func (a *Assembler) Feed(run activity.Run) {
	length := float64(run.Length)

	if run.On {
		if length < a.timing.DashThreshold {
			a.current.WriteByte('.')
		} else {
			a.current.WriteByte('-')
		}
		return
	}

	switch {
	case length < a.timing.IntraCharGap:
		// jitter inside a letter
	case length >= a.timing.WordGap:
		a.flush()
		if !a.endsSep {
			a.out.WriteString(WordSeparator)
			a.endsSep = true
		}
	case length >= a.timing.LetterGap:
		a.flush()
	}
	// Off-runs in [IntraCharGap, LetterGap) are absorbed without a flush.
}

// flush decodes the pending letter, if any, and clears the accumulator.
func (a *Assembler) flush() {
	if a.current.Len() == 0 {
		return
	}
	text := a.decode(a.current.String())
	a.current.Reset()
	a.out.WriteString(text)
	if text != "" {
		a.endsSep = strings.HasSuffix(text, WordSeparator)
	}
}

// Pending returns the dots and dashes of the letter in progress.
func (a *Assembler) Pending() string {
	return a.current.String()
}

// Text returns the output decoded so far, excluding the pending letter.
func (a *Assembler) Text() string {
	return a.out.String()
}

// Finish flushes the trailing letter and returns the decoded text.
func (a *Assembler) Finish() string {
	a.flush()
	return a.out.String()
}

// Assemble runs a fresh Assembler over runs.
func Assemble(runs []activity.Run, timing Timing, decode SymbolDecoder) string {
	a := NewAssembler(timing, decode)
	for _, r := range runs {
		a.Feed(r)
	}
	return a.Finish()
}
