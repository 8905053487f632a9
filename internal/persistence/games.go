package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

const pgnSuffix = ".pgn"

// GameStore saves single games as PGN files named {timestamp}_{white}_vs_{black}.pgn
type GameStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewGameStore creates a store rooted at dir
func NewGameStore(dir string) *GameStore {
	return &GameStore{dir: dir, now: time.Now}
}

// SaveGame writes pgn and returns the file name
func (s *GameStore) SaveGame(pgn, white, black string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", internalErrors.NewPersistenceError(s.dir, err)
	}

	base := fmt.Sprintf("%s_%s_vs_%s", s.now().Format(reportTimeLayout), playerSlug(white), playerSlug(black))
	for i := 1; i <= maxCollisionSuffix; i++ {
		name := base + pgnSuffix
		if i > 1 {
			name = fmt.Sprintf("%s_%d%s", base, i, pgnSuffix)
		}
		path := filepath.Join(s.dir, name)

		f, err := createExclusive(path)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", internalErrors.NewPersistenceError(path, err)
		}
		_, werr := f.WriteString(pgn)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return "", internalErrors.NewPersistenceError(path, errors.Join(werr, cerr))
		}
		return name, nil
	}
	return "", internalErrors.NewPersistenceError(s.dir, fmt.Errorf("no free game name for %s", base))
}

// ListGames returns the stored PGN file names, newest first
func (s *GameStore) ListGames() ([]string, error) {
	return listNames(s.dir, func(name string) bool {
		return strings.HasSuffix(name, pgnSuffix)
	})
}

// LoadGame reads one stored game by file name
func (s *GameStore) LoadGame(name string) (*model.GameRecord, error) {
	if !validFileName(name) || filepath.Ext(name) != pgnSuffix {
		return nil, internalErrors.NewInvalidFilenameError(name, "*"+pgnSuffix)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 -- name validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, internalErrors.NewFileNotFoundError(name)
		}
		return nil, fmt.Errorf("failed to read game %s: %w", name, err)
	}
	return &model.GameRecord{Filename: name, PGN: string(data)}, nil
}

// playerSlug keeps player labels safe for use in a file name
func playerSlug(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, name)
}
