// Package ragqa answers questions about a single text document. The
// document is split into overlapping chunks, the chunks are embedded and
// indexed, and every question is answered by a language model from the
// chunks most similar to it.
package ragqa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teilomillet/ragqa/config"
	"github.com/teilomillet/ragqa/rag"
	"github.com/teilomillet/ragqa/rag/providers"
)

// NoRelevantChunk is reported as the retrieved chunk when retrieval finds nothing.
const NoRelevantChunk = "No relevant chunk found."

// Answer is the result of one question.
type Answer struct {
	// Text is the model's answer.
	Text string
	// Chunk is the top ranked chunk, or NoRelevantChunk.
	Chunk string
	// ChunkWords is the word count of Chunk, 0 for NoRelevantChunk.
	ChunkWords int
	// Sources are the ranked chunks the prompt context was built from.
	Sources []rag.SearchResult
}

// SimpleRAG is the question-answering pipeline over one document. It is
// built once by NewSimpleRAG and is read-only afterwards.
type SimpleRAG struct {
	doc       rag.Document
	chunks    []rag.Chunk
	index     rag.VectorIndex
	retriever *Retriever
	generator rag.TextGenerator
	prompt    rag.PromptTemplate
	cfg       config.Config
	logger    rag.Logger
}

// Option replaces one of the components NewSimpleRAG would otherwise build
// from the configuration.
type Option func(*options)

type options struct {
	embedder  providers.Embedder
	generator rag.TextGenerator
	index     rag.VectorIndex
	splitter  rag.TextSplitter
	parser    rag.Parser
	logger    rag.Logger
	template  string
}

// WithEmbedder sets the embedding service.
func WithEmbedder(e providers.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithGenerator sets the language model.
func WithGenerator(g rag.TextGenerator) Option {
	return func(o *options) { o.generator = g }
}

// WithIndex sets the vector index. It must be empty; the pipeline builds it.
func WithIndex(idx rag.VectorIndex) Option {
	return func(o *options) { o.index = idx }
}

// WithSplitter sets the chunker.
func WithSplitter(s rag.TextSplitter) Option {
	return func(o *options) { o.splitter = s }
}

// WithParser sets the document loader.
func WithParser(p rag.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithLogger sets the logger for the pipeline and the components it builds.
func WithLogger(l rag.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPromptTemplate replaces rag.DefaultPromptTemplate. The template must
// contain {context} and {question}.
func WithPromptTemplate(template string) Option {
	return func(o *options) { o.template = template }
}

// NewSimpleRAG validates cfg, loads the document at path, chunks it, embeds
// every chunk and indexes them. The configuration, including the
// credential, is checked before the document is read.
func NewSimpleRAG(ctx context.Context, path string, cfg config.Config, opts ...Option) (r *SimpleRAG, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.template != "" && (!strings.Contains(o.template, "{context}") || !strings.Contains(o.template, "{question}")) {
		return nil, &rag.ConfigurationError{Field: "prompt_template", Err: errors.New("must contain {context} and {question}")}
	}
	logger := o.logger
	if logger == nil {
		logger = rag.GlobalLogger
	}

	splitter := o.splitter
	if splitter == nil {
		if splitter, err = newSplitter(cfg); err != nil {
			return nil, err
		}
	}
	embedder := o.embedder
	if embedder == nil {
		if embedder, err = newEmbedder(cfg); err != nil {
			return nil, err
		}
	}
	generator := o.generator
	if generator == nil {
		generator, err = rag.NewGollmGenerator(rag.GeneratorConfig{
			Provider:    cfg.LLMProvider,
			Model:       cfg.LLMModel,
			APIKey:      cfg.APIKey,
			Temperature: cfg.Temperature,
			Endpoint:    cfg.LLMURL,
		})
		if err != nil {
			return nil, err
		}
	}
	parser := o.parser
	if parser == nil {
		parserOpts := []rag.ParserOption{rag.WithParserLogger(logger)}
		if cfg.EnablePDF {
			parserOpts = append(parserOpts, rag.WithPDF())
		}
		parser = rag.NewParserManager(parserOpts...)
	}

	doc, err := parser.Parse(path)
	if err != nil {
		return nil, err
	}
	chunks := splitter.Split(doc.Content)
	logger.Info("Split document", "path", path, "chunks", len(chunks))

	service := rag.NewEmbeddingService(embedder, logger)
	embedded, err := service.EmbedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	index := o.index
	if index == nil {
		index, err = rag.NewVectorIndex(rag.IndexConfig{
			Type:       cfg.IndexType,
			Collection: cfg.Collection,
			Address:    cfg.MilvusAddress,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
	}
	defer func() {
		if err != nil {
			index.Close()
		}
	}()
	if err := index.Build(ctx, embedded); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	if index.Len() != len(chunks) {
		return nil, fmt.Errorf("index holds %d chunks, expected %d", index.Len(), len(chunks))
	}

	return &SimpleRAG{
		doc:       doc,
		chunks:    chunks,
		index:     index,
		retriever: NewRetriever(service, index, cfg.TopK, logger),
		generator: generator,
		prompt:    rag.NewPromptTemplate(o.template),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func newSplitter(cfg config.Config) (rag.TextSplitter, error) {
	counter, err := rag.NewTokenCounter(cfg.LengthUnit, cfg.TokenEncoding)
	if err != nil {
		return nil, err
	}
	return rag.NewRecursiveSplitter(
		rag.ChunkSize(cfg.ChunkSize),
		rag.ChunkOverlap(cfg.ChunkOverlap),
		rag.WithTokenCounter(counter),
	)
}

func newEmbedder(cfg config.Config) (providers.Embedder, error) {
	opts := []rag.EmbedderOption{
		rag.SetProvider(cfg.EmbeddingProvider),
		rag.SetModel(cfg.EmbeddingModel),
		rag.SetAPIKey(cfg.APIKey),
	}
	if cfg.EmbeddingURL != "" {
		opts = append(opts, rag.SetAPIURL(cfg.EmbeddingURL))
	}
	return rag.NewEmbedder(opts...)
}

// Query answers question from the retrieved chunks. The top ranked chunk
// of the same retrieval is reported with the answer, unless the pipeline
// is configured to retrieve it separately. The answer is generated even
// when nothing was retrieved.
func (r *SimpleRAG) Query(ctx context.Context, question string) (Answer, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	results, err := r.retriever.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	prompt := r.prompt.Format(rag.FormatContext(results), question)
	r.logger.Debug("Generating answer", "question", question, "context_chunks", len(results))
	text, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		var mse *rag.ModelServiceError
		if !errors.As(err, &mse) {
			err = &rag.ModelServiceError{Model: r.cfg.LLMModel, Err: err}
		}
		return Answer{}, err
	}

	top := results
	if r.cfg.SeparateSourceRetrieval {
		if top, err = r.retriever.Retrieve(ctx, question); err != nil {
			return Answer{}, err
		}
	}

	answer := Answer{Text: text, Chunk: NoRelevantChunk, Sources: results}
	if len(top) > 0 {
		answer.Chunk = top[0].Chunk.Text
		answer.ChunkWords = rag.WordCount(answer.Chunk)
	}
	return answer, nil
}

// TotalChunks returns the number of chunks in the index.
func (r *SimpleRAG) TotalChunks() int {
	return len(r.chunks)
}

// Chunks returns a copy of the chunk sequence.
func (r *SimpleRAG) Chunks() []rag.Chunk {
	out := make([]rag.Chunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// Document returns the loaded document.
func (r *SimpleRAG) Document() rag.Document {
	return r.doc
}

// Close releases the vector index.
func (r *SimpleRAG) Close() error {
	return r.index.Close()
}
