// Copyright 2026 Lectern Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"errors"
	"unicode"
)

const (
	defaultSize      = 1000
	defaultOverlap   = 200
	defaultMinLength = 50
)

// Fragment is one chunk of source text. Text always equals the source
// runes in [Start, End); for every fragment after the first, the leading
// Overlap runes repeat the tail of the previous fragment's body.
type Fragment struct {
	Text  string
	Start int // rune offset in the source text
	End   int // rune offset one past the last rune
}

// Config holds the chunking parameters.
type Config struct {
	// Size is the target fragment body length in runes. Default: 1000
	Size int

	// Overlap is how many runes of preceding context each fragment
	// carries. Default: 200
	Overlap int

	// MinLength drops fragments whose body is shorter, as noise.
	// Default: 50
	MinLength int
}

// DefaultConfig returns the chunking defaults.
func DefaultConfig() Config {
	return Config{
		Size:      defaultSize,
		Overlap:   defaultOverlap,
		MinLength: defaultMinLength,
	}
}

// Validate checks the parameter combination.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return errors.New("chunk config: Size must be positive")
	}
	if c.Overlap < 0 {
		return errors.New("chunk config: Overlap must not be negative")
	}
	if c.Overlap >= c.Size {
		return errors.New("chunk config: Overlap must be smaller than Size")
	}
	if c.MinLength < 0 {
		return errors.New("chunk config: MinLength must not be negative")
	}
	return nil
}

// span is a half-open rune range into the source text.
type span struct {
	start, end int
}

// Split chunks text into fragments of at most cfg.Size body runes, each
// extended backwards by cfg.Overlap runes of context. It is pure:
// identical input always yields the identical fragment sequence.
func Split(text string, cfg Config) ([]Fragment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	atoms := decompose(runes, span{0, len(runes)}, 0, cfg.Size)
	bodies := pack(atoms, cfg.Size)

	fragments := make([]Fragment, 0, len(bodies))
	for _, body := range bodies {
		// The noise filter measures the body alone; the overlap prefix
		// repeats text already covered and must not pad a short
		// fragment past the threshold.
		if body.end-body.start < cfg.MinLength {
			continue
		}
		start := body.start - cfg.Overlap
		if start < 0 {
			start = 0
		}
		fragments = append(fragments, Fragment{
			Text:  string(runes[start:body.end]),
			Start: start,
			End:   body.end,
		})
	}

	return fragments, nil
}

// boundary levels, largest semantic unit first
const (
	levelParagraph = iota
	levelLine
	levelSentence
	levelWord
	levelRune
)

// decompose recursively splits s on the largest boundary level that
// still applies, until every piece fits in size runes.
func decompose(runes []rune, s span, level, size int) []span {
	if s.end-s.start <= size {
		return []span{s}
	}

	switch level {
	case levelParagraph, levelLine, levelSentence, levelWord:
		parts := splitAt(runes, s, level)
		if len(parts) == 1 {
			// Boundary absent at this level; fall through to the next
			return decompose(runes, s, level+1, size)
		}
		var out []span
		for _, part := range parts {
			out = append(out, decompose(runes, part, level+1, size)...)
		}
		return out
	default:
		// levelRune: hard cut, a single unbroken run longer than size
		var out []span
		for start := s.start; start < s.end; start += size {
			end := start + size
			if end > s.end {
				end = s.end
			}
			out = append(out, span{start, end})
		}
		return out
	}
}

// splitAt cuts s after every boundary of the given level. The boundary
// characters stay attached to the preceding piece, so the pieces cover
// the span without gaps.
func splitAt(runes []rune, s span, level int) []span {
	var parts []span
	start := s.start
	for i := s.start; i < s.end-1; i++ {
		if isBoundary(runes, i, level) {
			parts = append(parts, span{start, i + 1})
			start = i + 1
		}
	}
	parts = append(parts, span{start, s.end})
	return parts
}

func isBoundary(runes []rune, i, level int) bool {
	switch level {
	case levelParagraph:
		return runes[i] == '\n' && runes[i+1] == '\n'
	case levelLine:
		return runes[i] == '\n'
	case levelSentence:
		return (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') &&
			unicode.IsSpace(runes[i+1])
	case levelWord:
		return unicode.IsSpace(runes[i])
	}
	return false
}

// pack greedily merges adjacent atoms into contiguous bodies of at most
// size runes. Every atom is already at most size runes long.
func pack(atoms []span, size int) []span {
	var bodies []span
	current := atoms[0]
	for _, atom := range atoms[1:] {
		if atom.end-current.start <= size {
			current.end = atom.end
			continue
		}
		bodies = append(bodies, current)
		current = atom
	}
	bodies = append(bodies, current)
	return bodies
}
