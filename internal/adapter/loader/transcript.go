package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"local-rag/internal/domain"
)

type transcriptLoader struct{}

// NewTranscriptLoader reads a transcript file with one caption cue per line.
// Cues carry no punctuation, so a sentence break is injected every third cue
// to give the sentence tokenizer something to split on.
func NewTranscriptLoader() domain.DocumentLoader {
	return &transcriptLoader{}
}

func (l *transcriptLoader) Load(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	idx := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if idx%3 == 0 && idx != 0 {
			sb.WriteString(". ")
		}
		sb.WriteString(line)
		idx++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}

	return sb.String(), nil
}
