package rag

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is a contiguous span of a document used as the unit of retrieval.
type Chunk struct {
	// Text is the span content with surrounding whitespace trimmed. Never empty.
	Text string
	// Index is the position of the chunk in the ordered sequence.
	Index int
	// Start and End are the byte offsets of the raw span in the document.
	// Consecutive spans touch or overlap; only whitespace falls between them.
	Start int
	End   int
	// Size is the length of the span in the splitter's unit.
	Size int
}

// TextSplitter splits a document into an ordered sequence of chunks.
type TextSplitter interface {
	Split(text string) []Chunk
}

// TokenCounter measures text in the unit chunk sizes are expressed in.
type TokenCounter interface {
	Count(text string) int
}

// DefaultSeparators are tried in order: paragraph, line, sentence, word
// and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", "؟ ", " ", ""}

// RecursiveSplitter splits text at the largest structural boundary that
// keeps chunks within ChunkSize, and repeats the last ChunkOverlap units of
// a chunk at the start of the next one. A paragraph that fits stays out of
// the chunks of a neighbouring paragraph that has to be split further.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	TokenCounter TokenCounter
}

// SplitterOption configures a RecursiveSplitter.
type SplitterOption func(*RecursiveSplitter)

// ChunkSize sets the maximum chunk length.
func ChunkSize(size int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.ChunkSize = size
	}
}

// ChunkOverlap sets the length shared by consecutive chunks.
func ChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.ChunkOverlap = overlap
	}
}

// WithSeparators replaces DefaultSeparators.
func WithSeparators(separators ...string) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.Separators = separators
	}
}

// WithTokenCounter sets the unit lengths are measured in.
func WithTokenCounter(counter TokenCounter) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.TokenCounter = counter
	}
}

// NewRecursiveSplitter creates a splitter measuring runes, with a chunk size
// of 500 and an overlap of 100 unless options say otherwise.
func NewRecursiveSplitter(opts ...SplitterOption) (*RecursiveSplitter, error) {
	s := &RecursiveSplitter{
		ChunkSize:    500,
		ChunkOverlap: 100,
		Separators:   DefaultSeparators,
		TokenCounter: RuneCounter{},
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.ChunkSize <= 0:
		return nil, &ConfigurationError{Field: "chunk_size", Err: fmt.Errorf("must be positive, got %d", s.ChunkSize)}
	case s.ChunkOverlap < 0:
		return nil, &ConfigurationError{Field: "chunk_overlap", Err: fmt.Errorf("must not be negative, got %d", s.ChunkOverlap)}
	case s.ChunkOverlap >= s.ChunkSize:
		return nil, &ConfigurationError{Field: "chunk_overlap", Err: fmt.Errorf("%d must be smaller than chunk size %d", s.ChunkOverlap, s.ChunkSize)}
	case s.TokenCounter == nil:
		return nil, &ConfigurationError{Field: "length_unit", Err: errors.New("no token counter")}
	}
	return s, nil
}

type piece struct {
	start, end int
	size       int
}

// Split returns the chunks of text in document order.
func (s *RecursiveSplitter) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []Chunk
	for _, w := range s.splitText(text, 0, len(text), s.Separators) {
		chunks = appendChunk(chunks, text, w)
	}
	return chunks
}

// splitText cuts text[start:end] at the first separator it contains. Runs of
// pieces that fit are merged into windows. A piece that is too long closes
// the current run and is split on its own with the remaining separators, so
// its sub-chunks never share a window with its neighbours.
func (s *RecursiveSplitter) splitText(text string, start, end int, separators []string) []piece {
	segment := text[start:end]

	idx := -1
	for i, sep := range separators {
		if sep == "" || strings.Contains(segment, sep) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return []piece{{start: start, end: end, size: s.TokenCounter.Count(segment)}}
	}
	sep, rest := separators[idx], separators[idx+1:]

	var out, fitting []piece
	for _, sp := range cutAfter(segment, sep) {
		p := piece{start: start + sp[0], end: start + sp[1]}
		p.size = s.TokenCounter.Count(text[p.start:p.end])
		if p.size <= s.ChunkSize {
			fitting = append(fitting, p)
			continue
		}
		out = append(out, s.merge(fitting)...)
		fitting = nil
		if sep == "" || len(rest) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.splitText(text, p.start, p.end, rest)...)
	}
	return append(out, s.merge(fitting)...)
}

// merge packs consecutive pieces into windows of at most ChunkSize, each
// starting with the tail of the previous one.
func (s *RecursiveSplitter) merge(pieces []piece) []piece {
	var windows, window []piece
	total := 0
	emit := func() {
		windows = append(windows, piece{start: window[0].start, end: window[len(window)-1].end, size: total})
	}

	for _, p := range pieces {
		if total+p.size > s.ChunkSize && len(window) > 0 {
			emit()
			for len(window) > 0 && (total > s.ChunkOverlap || total+p.size > s.ChunkSize) {
				total -= window[0].size
				window = window[1:]
			}
		}
		window = append(window, p)
		total += p.size
	}
	if len(window) > 0 {
		emit()
	}
	return windows
}

func appendChunk(chunks []Chunk, text string, w piece) []Chunk {
	trimmed := strings.TrimSpace(text[w.start:w.end])
	if trimmed == "" {
		return chunks
	}
	return append(chunks, Chunk{
		Text:  trimmed,
		Index: len(chunks),
		Start: w.start,
		End:   w.end,
		Size:  w.size,
	})
}

// cutAfter splits s after every occurrence of sep, keeping the separator at
// the end of the preceding piece. An empty sep cuts between runes. The
// returned [start, end) offsets tile s.
func cutAfter(s, sep string) [][2]int {
	var out [][2]int
	if sep == "" {
		for i := 0; i < len(s); {
			_, width := utf8.DecodeRuneInString(s[i:])
			out = append(out, [2]int{i, i + width})
			i += width
		}
		return out
	}
	pos := 0
	for {
		i := strings.Index(s[pos:], sep)
		if i < 0 {
			break
		}
		end := pos + i + len(sep)
		out = append(out, [2]int{pos, end})
		pos = end
	}
	if pos < len(s) {
		out = append(out, [2]int{pos, len(s)})
	}
	return out
}

// RuneCounter measures text in Unicode code points.
type RuneCounter struct{}

// Count returns the number of runes in text.
func (RuneCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

// WordCounter measures text in whitespace separated words.
type WordCounter struct{}

// Count returns the number of words in text.
func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter measures text in tokens of a tiktoken encoding, the
// tokenization used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a counter for encoding, e.g. "cl100k_base".
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encoding, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the number of tokens in text.
func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}

// NewTokenCounter returns the counter for a length unit name:
// "runes" (or "chars"), "words" or "tokens".
func NewTokenCounter(unit, encoding string) (TokenCounter, error) {
	switch strings.ToLower(unit) {
	case "", "runes", "chars", "characters":
		return RuneCounter{}, nil
	case "words":
		return WordCounter{}, nil
	case "tokens":
		if encoding == "" {
			encoding = "cl100k_base"
		}
		return NewTikTokenCounter(encoding)
	default:
		return nil, &ConfigurationError{Field: "length_unit", Err: fmt.Errorf("unknown unit %q", unit)}
	}
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
