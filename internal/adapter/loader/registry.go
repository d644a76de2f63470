package loader

import (
	"fmt"

	"local-rag/internal/domain"
)

// Registry maps source kinds to their loaders.
type Registry struct {
	loaders map[domain.SourceKind]domain.DocumentLoader
}

// NewRegistry builds a registry with all supported loaders.
func NewRegistry() *Registry {
	return &Registry{
		loaders: map[domain.SourceKind]domain.DocumentLoader{
			domain.SourceKindText:       NewTextLoader(),
			domain.SourceKindPDF:        NewPDFLoader(),
			domain.SourceKindDocx:       NewDocxLoader(),
			domain.SourceKindTranscript: NewTranscriptLoader(),
		},
	}
}

// ForKind returns the loader registered for the kind.
func (r *Registry) ForKind(kind domain.SourceKind) (domain.DocumentLoader, error) {
	l, ok := r.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for source kind %q", domain.ErrInvalidInput, kind)
	}
	return l, nil
}
