package rag

import "strings"

// DefaultPromptTemplate asks the model to answer from the retrieved context
// only. {context} and {question} are substituted by PromptTemplate.Format.
const DefaultPromptTemplate = `Answer the following question based only on the provided context:

Context:
{context}

Question: {question}
`

// PromptTemplate builds the prompt sent to the language model.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate returns a template for text, or DefaultPromptTemplate
// when text is empty.
func NewPromptTemplate(text string) PromptTemplate {
	if text == "" {
		text = DefaultPromptTemplate
	}
	return PromptTemplate{Template: text}
}

// Format substitutes context and question in a single pass, so neither
// value is itself scanned for placeholders.
func (t PromptTemplate) Format(context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(t.Template)
}

// FormatContext joins the text of results, in ranked order, with blank lines.
func FormatContext(results []SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}
