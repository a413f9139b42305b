package rag

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `Retrieval augmented generation combines search with a language model. The model only sees a few chunks of the document. Each chunk must be small enough to fit the prompt.

Chunks overlap so that a sentence cut at a boundary is still found. The overlap is measured in the same unit as the chunk size! Does the splitter keep paragraphs together? It tries to.

Short paragraph.
A line on its own.
Another line, slightly longer than the previous one.`

func texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// reconstruct concatenates the raw spans with the overlapping parts removed.
func reconstruct(text string, chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(text[chunks[0].Start:chunks[0].End])
	for i := 1; i < len(chunks); i++ {
		b.WriteString(text[chunks[i-1].End:chunks[i].End])
	}
	return b.String()
}

func TestRecursiveSplitter_SentencesWithWordUnit(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(1), ChunkOverlap(0), WithTokenCounter(WordCounter{}))
	require.NoError(t, err)

	chunks := s.Split("A. B. C.")
	assert.Equal(t, []string{"A.", "B.", "C."}, texts(chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestRecursiveSplitter_SentencesWithRuneUnit(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(3), ChunkOverlap(0))
	require.NoError(t, err)

	assert.Equal(t, []string{"A.", "B.", "C."}, texts(s.Split("A. B. C.")))
}

func TestRecursiveSplitter_ShortTextIsOneChunk(t *testing.T) {
	s, err := NewRecursiveSplitter()
	require.NoError(t, err)

	chunks := s.Split("  A short document.\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short document.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len("  A short document.\n"), chunks[0].End)
}

func TestRecursiveSplitter_PrefersParagraphs(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(10), ChunkOverlap(0))
	require.NoError(t, err)

	assert.Equal(t, []string{"aaa bbb.", "ccc ddd."}, texts(s.Split("aaa bbb.\n\nccc ddd.")))
}

func TestRecursiveSplitter_ShortParagraphStaysAlone(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(50), ChunkOverlap(0))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Intro.",
		"First sentence is here. Second sentence is here.",
		"Third sentence is here.",
	}, texts(s.Split("Intro.\n\nFirst sentence is here. Second sentence is here. Third sentence is here.")))

	assert.Equal(t, []string{
		"First sentence is here. Second sentence is here.",
		"Third sentence is here.",
		"Outro.",
	}, texts(s.Split("First sentence is here. Second sentence is here. Third sentence is here.\n\nOutro.")))
}

func TestRecursiveSplitter_OverlapStaysInsideParagraph(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(50), ChunkOverlap(30))
	require.NoError(t, err)

	chunks := s.Split("Intro.\n\nFirst sentence is here. Second sentence is here. Third sentence is here.")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Intro.", chunks[0].Text)
	for _, c := range chunks[1:] {
		assert.NotContains(t, c.Text, "Intro.")
	}
}

func TestRecursiveSplitter_WordOverlap(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(2), ChunkOverlap(1), WithTokenCounter(WordCounter{}))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"one two", "two three", "three four", "four five"},
		texts(s.Split("one two three four five")))
}

func TestRecursiveSplitter_Reconstruction(t *testing.T) {
	configs := []struct {
		size, overlap int
	}{
		{500, 100},
		{200, 50},
		{80, 20},
		{40, 0},
		{25, 10},
		{7, 3},
		{1, 0},
	}

	for _, cfg := range configs {
		s, err := NewRecursiveSplitter(ChunkSize(cfg.size), ChunkOverlap(cfg.overlap))
		require.NoError(t, err)

		chunks := s.Split(sampleText)
		require.NotEmpty(t, chunks)
		assert.Equal(t, sampleText, reconstruct(sampleText, chunks), "size=%d overlap=%d", cfg.size, cfg.overlap)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, len(sampleText), chunks[len(chunks)-1].End)

		for i, c := range chunks {
			raw := sampleText[c.Start:c.End]
			assert.NotEmpty(t, c.Text)
			assert.Equal(t, strings.TrimSpace(raw), c.Text)
			assert.Equal(t, utf8.RuneCountInString(raw), c.Size)
			assert.LessOrEqual(t, c.Size, cfg.size)
			if i == 0 {
				continue
			}
			prev := chunks[i-1]
			assert.Greater(t, c.End, prev.End)
			if c.Start >= prev.End {
				// Only whitespace-only windows are skipped.
				assert.Empty(t, strings.TrimSpace(sampleText[prev.End:c.Start]))
				continue
			}
			assert.NotZero(t, cfg.overlap, "chunks %d and %d overlap", i-1, i)
			assert.LessOrEqual(t, utf8.RuneCountInString(sampleText[c.Start:prev.End]), cfg.overlap)
		}
	}
}

func TestRecursiveSplitter_Deterministic(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(60), ChunkOverlap(15))
	require.NoError(t, err)

	first := s.Split(sampleText)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, s.Split(sampleText))
	}
}

func TestRecursiveSplitter_MultibyteCharacters(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(2), ChunkOverlap(0))
	require.NoError(t, err)

	chunks := s.Split("ééééé")
	assert.Equal(t, []string{"éé", "éé", "é"}, texts(chunks))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text))
	}
}

func TestRecursiveSplitter_ArabicSentences(t *testing.T) {
	s, err := NewRecursiveSplitter(ChunkSize(8), ChunkOverlap(0))
	require.NoError(t, err)

	chunks := s.Split("ما هذا؟ هذا نص.")
	assert.Equal(t, []string{"ما هذا؟", "هذا نص."}, texts(chunks))
}

func TestRecursiveSplitter_EmptyInput(t *testing.T) {
	s, err := NewRecursiveSplitter()
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split(" \n\n\t "))
}

func TestNewRecursiveSplitter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []SplitterOption
	}{
		{"zero size", []SplitterOption{ChunkSize(0)}},
		{"negative overlap", []SplitterOption{ChunkOverlap(-1)}},
		{"overlap equals size", []SplitterOption{ChunkSize(10), ChunkOverlap(10)}},
		{"overlap above size", []SplitterOption{ChunkSize(10), ChunkOverlap(20)}},
		{"no counter", []SplitterOption{WithTokenCounter(nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecursiveSplitter(tt.opts...)
			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestCutAfter(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 8}}, cutAfter("A. B. C.", ". "))
	assert.Equal(t, [][2]int{{0, 4}}, cutAfter("abcd", "\n"))
	assert.Equal(t, [][2]int{{0, 2}, {2, 3}}, cutAfter("éa", ""))
}

func TestTokenCounters(t *testing.T) {
	assert.Equal(t, 5, RuneCounter{}.Count("héllo"))
	assert.Equal(t, 3, WordCounter{}.Count(" one  two\nthree "))
	assert.Equal(t, 0, WordCount(""))

	c, err := NewTokenCounter("words", "")
	require.NoError(t, err)
	assert.IsType(t, WordCounter{}, c)

	c, err = NewTokenCounter("", "")
	require.NoError(t, err)
	assert.IsType(t, RuneCounter{}, c)

	_, err = NewTokenCounter("paragraphs", "")
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
