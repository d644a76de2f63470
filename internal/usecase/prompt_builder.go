package usecase

import (
	"fmt"
	"strings"

	"local-rag/internal/domain"
)

// PromptBuilder renders the generation prompt from a query and the assembled
// context block. The generate flag switches between the concise-answer
// template and the long-form content template.
type PromptBuilder interface {
	Build(query, context string, generate bool) (string, error)
}

type taggedPromptBuilder struct{}

// NewPromptBuilder creates a prompt builder with tagged context and query
// sections so the model can separate instructions from retrieved text.
func NewPromptBuilder() PromptBuilder {
	return &taggedPromptBuilder{}
}

func (b *taggedPromptBuilder) Build(query, context string, generate bool) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(context) == "" {
		return "", fmt.Errorf("%w: context is empty", domain.ErrInvalidInput)
	}

	var sb strings.Builder
	if generate {
		sb.WriteString("You are a writing assistant. Using ONLY the material inside <context>, ")
		sb.WriteString("write a well-structured long-form piece that addresses the request in <query>. ")
		sb.WriteString("Organize it with headings and flowing prose, and do not invent facts that are not in the context.\n\n")
	} else {
		sb.WriteString("You are an assistant that answers questions using ONLY the material inside <context>. ")
		sb.WriteString("Answer the question in <query> concisely. ")
		sb.WriteString("If the context does not contain the answer, say so instead of guessing.\n\n")
	}

	sb.WriteString("<context>\n")
	sb.WriteString(context)
	sb.WriteString("\n</context>\n\n")
	sb.WriteString("<query>\n")
	sb.WriteString(query)
	sb.WriteString("\n</query>\n")

	return sb.String(), nil
}
