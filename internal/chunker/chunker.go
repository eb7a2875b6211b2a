// Package chunker splits guide text into overlapping windows sized for
// embedding. Splitting is deterministic and prefers natural boundaries
// (sentence terminators before weaker separators) near the window edge.
package chunker

// Chunk is a bounded span of source text. Start and End are rune offsets
// into the original text, with End exclusive.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Default splitting parameters, tuned for travel-guide prose that mixes
// CJK and Latin text.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// DefaultSeparators lists preferred split boundaries in priority order:
// CJK sentence terminators first, then newline, clause comma, and space.
func DefaultSeparators() []string {
	return []string{"。", "！", "？", "\n", "，", " "}
}

// Splitter produces overlapping chunks of at most ChunkSize runes, with
// consecutive chunks sharing about Overlap runes.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// NewSplitter returns a splitter with the given size and overlap and the
// default separator priority. Size must exceed overlap; values out of range
// fall back to the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}
	return &Splitter{
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		Separators: DefaultSeparators(),
	}
}

// Split chunks text into windows of at most ChunkSize runes. Each window
// ends at the highest-priority separator found in its tail when one exists,
// so sentences are not cut mid-token when a boundary is nearby. The next
// window starts Overlap runes before the previous end. Identical input
// always yields the identical chunk sequence.
func (s *Splitter) Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []Chunk{{Text: text, Start: 0, End: len(runes)}}
	}

	var chunks []Chunk
	pos := 0
	for pos < len(runes) {
		end := pos + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.splitPoint(runes, pos, end)
		}

		chunks = append(chunks, Chunk{
			Text:  string(runes[pos:end]),
			Start: pos,
			End:   end,
		})
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= pos {
			// Window too small to overlap; step forward instead.
			next = end
		}
		pos = next
	}
	return chunks
}

// splitPoint returns the exclusive end of the window [pos, limit), moved
// back to just after the last occurrence of the highest-priority separator
// inside the window. Without any separator the hard limit stands.
func (s *Splitter) splitPoint(runes []rune, pos, limit int) int {
	window := runes[pos:limit]
	for _, sep := range s.Separators {
		sepRunes := []rune(sep)
		if idx := lastIndexRunes(window, sepRunes); idx > 0 {
			return pos + idx + len(sepRunes)
		}
	}
	return limit
}

func lastIndexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := len(haystack) - len(needle); i >= 0; i-- {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
