package ragqa

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	questions []string
	err       error
}

func (f *fakeQuerier) Query(ctx context.Context, question string) (Answer, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return Answer{}, f.err
	}
	if question == "nothing" {
		return Answer{Text: "No idea.", Chunk: NoRelevantChunk}, nil
	}
	return Answer{Text: "Paris.", Chunk: "The capital of France is Paris.", ChunkWords: 6}, nil
}

func (f *fakeQuerier) TotalChunks() int { return 12 }

func runConsole(t *testing.T, q Querier, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewConsole(q, strings.NewReader(input), &out).Run(context.Background())
	return out.String(), err
}

func TestConsole_AnswersUntilExit(t *testing.T) {
	q := &fakeQuerier{}
	out, err := runConsole(t, q, "What is the capital of France?\nexit\nnever asked\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"What is the capital of France?"}, q.questions)
	assert.Equal(t, "Total number of chunks in the vector database: 12\n"+
		"Ask a question (or type 'exit' to quit): "+
		"\nAnswer: Paris.\n"+
		"Retrieved chunk: The capital of France is Paris.\n"+
		"Chunk size: 6\n"+
		"--------------------\n\n"+
		"Ask a question (or type 'exit' to quit): ", out)
}

func TestConsole_ExitKeywords(t *testing.T) {
	for _, keyword := range []string{"exit", "quit", "خروج", "EXIT", "  Quit  "} {
		t.Run(keyword, func(t *testing.T) {
			q := &fakeQuerier{}
			_, err := runConsole(t, q, keyword+"\nquestion\n")
			require.NoError(t, err)
			assert.Empty(t, q.questions)
		})
	}
}

func TestConsole_SkipsEmptyLines(t *testing.T) {
	q := &fakeQuerier{}
	_, err := runConsole(t, q, "\n   \nfirst\n\nsecond\nquit\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, q.questions)
}

func TestConsole_EndOfInput(t *testing.T) {
	q := &fakeQuerier{}
	out, err := runConsole(t, q, "last question without newline")
	require.NoError(t, err)
	assert.Equal(t, []string{"last question without newline"}, q.questions)
	assert.Contains(t, out, "Answer: Paris.")

	q = &fakeQuerier{}
	_, err = runConsole(t, q, "")
	require.NoError(t, err)
	assert.Empty(t, q.questions)
}

func TestConsole_NoRelevantChunk(t *testing.T) {
	out, err := runConsole(t, &fakeQuerier{}, "nothing\nexit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Retrieved chunk: No relevant chunk found.\nChunk size: 0\n")
}

func TestConsole_QueryErrorStopsLoop(t *testing.T) {
	cause := &ModelServiceError{Model: "gpt-4o-mini", Err: errors.New("unavailable")}
	q := &fakeQuerier{err: cause}

	out, err := runConsole(t, q, "first\nsecond\n")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"first"}, q.questions)
	assert.NotContains(t, out, "Answer:")
}
