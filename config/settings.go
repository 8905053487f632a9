// Package config provides the process configuration for the benchmark services.
// Settings are read from the environment (optionally seeded from a .env file) and
// may be overridden by command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

// Index backends
const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// DefaultRetrievalThreshold is the minimum similarity of an accepted match
const DefaultRetrievalThreshold = 0.80

// Baseline engines
const (
	EngineBuiltin = "builtin"
	EngineUCI     = "uci"
)

// Settings contains every tunable of the benchmark process.
type Settings struct {
	QdrantURL        string `json:"qdrant_url"`        // host[:port] or http(s) URL of the Qdrant gRPC endpoint
	QdrantAPIKey     string `json:"-"`                 // never serialized
	QdrantCollection string `json:"qdrant_collection"` // collection holding the position corpus
	IndexBackend     string `json:"index_backend"`     // "qdrant" or "memory"
	MemoryIndexPath  string `json:"memory_index_path"` // gob snapshot for the memory backend

	// RetrievalThreshold is nil until defaulted; 0 is a valid threshold
	RetrievalThreshold *float64      `json:"retrieval_threshold"`
	QueryTimeout       time.Duration `json:"query_timeout"`

	BaselineEngine string        `json:"baseline_engine"` // "builtin" or "uci"
	BaselineDepth  int           `json:"baseline_depth"`
	UCIEnginePath  string        `json:"uci_engine_path"`
	OracleTimeout  time.Duration `json:"oracle_timeout"`

	BenchmarksDir string `json:"benchmarks_dir"`
	GamesDir      string `json:"games_dir"`

	// RandomSeed seeds the fallback RNG; zero means a time-derived seed.
	RandomSeed int64 `json:"random_seed"`

	MaxRuns      int           `json:"max_runs"`
	RunRetention time.Duration `json:"run_retention"`

	LogLevel  string `json:"log_level"`
	LogPretty bool   `json:"log_pretty"`
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills zero-valued fields with their defaults
func (s *Settings) ApplyDefaults() {
	if s.QdrantCollection == "" {
		s.QdrantCollection = "magnus_chess"
	}
	if s.IndexBackend == "" {
		s.IndexBackend = BackendQdrant
	}
	if s.RetrievalThreshold == nil {
		threshold := DefaultRetrievalThreshold
		s.RetrievalThreshold = &threshold
	}
	if s.QueryTimeout == 0 {
		s.QueryTimeout = 5 * time.Second
	}
	if s.BaselineEngine == "" {
		s.BaselineEngine = EngineBuiltin
	}
	if s.BaselineDepth == 0 {
		s.BaselineDepth = 4
	}
	if s.OracleTimeout == 0 {
		s.OracleTimeout = 60 * time.Second
	}
	if s.BenchmarksDir == "" {
		s.BenchmarksDir = "benchmarks"
	}
	if s.GamesDir == "" {
		s.GamesDir = "games"
	}
	if s.MaxRuns == 0 {
		s.MaxRuns = 64
	}
	if s.RunRetention == 0 {
		s.RunRetention = 24 * time.Hour
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// Conflicts returns a human-readable message for every invalid setting
func (s *Settings) Conflicts() []string {
	var conflicts []string

	switch s.IndexBackend {
	case BackendQdrant:
		if strings.TrimSpace(s.QdrantURL) == "" {
			conflicts = append(conflicts, "QDRANT_URL is required when index_backend is 'qdrant'")
		}
		if strings.TrimSpace(s.QdrantCollection) == "" {
			conflicts = append(conflicts, "QDRANT_COLLECTION cannot be empty")
		}
	case BackendMemory:
	default:
		conflicts = append(conflicts, "Invalid index_backend '"+s.IndexBackend+"' (must be 'qdrant' or 'memory')")
	}

	switch s.BaselineEngine {
	case EngineBuiltin:
	case EngineUCI:
		if strings.TrimSpace(s.UCIEnginePath) == "" {
			conflicts = append(conflicts, "UCI_ENGINE_PATH is required when baseline_engine is 'uci'")
		}
	default:
		conflicts = append(conflicts, "Invalid baseline_engine '"+s.BaselineEngine+"' (must be 'builtin' or 'uci')")
	}

	if t := s.RetrievalThreshold; t != nil && (*t < -1 || *t > 1) {
		conflicts = append(conflicts, fmt.Sprintf("retrieval_threshold %.3f is outside [-1, 1]", *t))
	}
	if s.BaselineDepth < 1 {
		conflicts = append(conflicts, "baseline_depth must be at least 1")
	}
	if s.QueryTimeout < 0 || s.OracleTimeout < 0 {
		conflicts = append(conflicts, "timeouts cannot be negative")
	}
	if s.MaxRuns < 1 {
		conflicts = append(conflicts, "max_runs must be at least 1")
	}
	if s.LogLevel != "" {
		if _, ok := logLevels[strings.ToLower(s.LogLevel)]; !ok {
			conflicts = append(conflicts, "Invalid log_level '"+s.LogLevel+"'")
		}
	}

	return conflicts
}

// Validate returns a ConfigError describing the first invalid setting, or nil
func (s *Settings) Validate() error {
	conflicts := s.Conflicts()
	if len(conflicts) == 0 {
		return nil
	}
	return internalErrors.NewConfigError("settings", strings.Join(conflicts, "; "))
}

var logLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "fatal": {}, "panic": {}, "disabled": {},
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (*Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, internalErrors.NewConfigError(f, err.Error())
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds settings from a lookup function and applies defaults.
func FromEnv(getenv func(string) string) (*Settings, error) {
	s := &Settings{
		QdrantURL:        getenv("QDRANT_URL"),
		QdrantAPIKey:     getenv("QDRANT_API_KEY"),
		QdrantCollection: getenv("QDRANT_COLLECTION"),
		IndexBackend:     strings.ToLower(getenv("INDEX_BACKEND")),
		MemoryIndexPath:  getenv("MEMORY_INDEX_PATH"),
		BaselineEngine:   strings.ToLower(getenv("BASELINE_ENGINE")),
		UCIEnginePath:    getenv("UCI_ENGINE_PATH"),
		BenchmarksDir:    getenv("BENCHMARKS_DIR"),
		GamesDir:         getenv("GAMES_DIR"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL")),
	}

	if v := getenv("RETRIEVAL_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, internalErrors.NewConfigError("RETRIEVAL_THRESHOLD", err.Error())
		}
		s.RetrievalThreshold = &f
	}
	if v := getenv("BASELINE_DEPTH"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, internalErrors.NewConfigError("BASELINE_DEPTH", err.Error())
		}
		s.BaselineDepth = d
	}
	if v := getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, internalErrors.NewConfigError("RANDOM_SEED", err.Error())
		}
		s.RandomSeed = seed
	}

	s.ApplyDefaults()
	return s, nil
}

// Seed returns the configured RNG seed, deriving one from the clock when unset
func (s *Settings) Seed() int64 {
	if s.RandomSeed != 0 {
		return s.RandomSeed
	}
	return time.Now().UnixNano()
}
