package vectorindex

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/config"
)

// Open builds the index backend selected by s. A Qdrant collection is created
// when missing; a memory index loads its snapshot from MemoryIndexPath.
func Open(ctx context.Context, s *config.Settings, log zerolog.Logger) (Index, error) {
	if s.IndexBackend == config.BackendMemory {
		if s.MemoryIndexPath == "" {
			return NewMemoryIndex(), nil
		}
		return OpenMemoryIndex(s.MemoryIndexPath)
	}

	idx, err := NewQdrantIndex(QdrantConfig{
		URL:        s.QdrantURL,
		APIKey:     s.QdrantAPIKey,
		Collection: s.QdrantCollection,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}
