package loader

import (
	"context"
	"fmt"
	"os"

	"local-rag/internal/domain"
)

type textLoader struct{}

// NewTextLoader reads a plain text file as-is.
func NewTextLoader() domain.DocumentLoader {
	return &textLoader{}
}

func (l *textLoader) Load(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
