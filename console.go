package ragqa

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ExitKeywords end the console loop, compared case-insensitively.
var ExitKeywords = []string{"exit", "quit", "خروج"}

// Querier is the part of SimpleRAG the console needs.
type Querier interface {
	Query(ctx context.Context, question string) (Answer, error)
	TotalChunks() int
}

// Console is a read-evaluate-print loop asking questions to a Querier.
type Console struct {
	rag Querier
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console reading questions from in and printing to out.
func NewConsole(q Querier, in io.Reader, out io.Writer) *Console {
	return &Console{rag: q, in: bufio.NewReader(in), out: out}
}

// Run prints the chunk count and answers questions until an exit keyword
// or the end of the input. A failed question stops the loop and its error
// is returned.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintf(c.out, "Total number of chunks in the vector database: %d\n", c.rag.TotalChunks())

	for {
		fmt.Fprint(c.out, "Ask a question (or type 'exit' to quit): ")
		line, readErr := c.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}

		question := strings.TrimSpace(line)
		switch {
		case isExit(question):
			return nil
		case question == "":
			if readErr != nil {
				fmt.Fprintln(c.out)
				return nil
			}
			continue
		}

		answer, err := c.rag.Query(ctx, question)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\nAnswer: %s\n", answer.Text)
		fmt.Fprintf(c.out, "Retrieved chunk: %s\n", answer.Chunk)
		fmt.Fprintf(c.out, "Chunk size: %d\n", answer.ChunkWords)
		fmt.Fprintf(c.out, "%s\n\n", strings.Repeat("-", 20))

		if readErr != nil {
			return nil
		}
	}
}

func isExit(s string) bool {
	s = strings.ToLower(s)
	for _, k := range ExitKeywords {
		if s == k {
			return true
		}
	}
	return false
}
