package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

const (
	reportPrefix = "benchmark_"
	reportSuffix = ".json"
	// reportTimeLayout renders as YYYYMMDD_HHMMSS
	reportTimeLayout = "20060102_150405"
	// maxCollisionSuffix bounds the search for a free report name within one second
	maxCollisionSuffix = 1000
)

// ReportStore writes and reads benchmark reports in a single directory
type ReportStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewReportStore creates a store rooted at dir. The directory is created on first write.
func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir, now: time.Now}
}

// Dir returns the directory holding the reports
func (s *ReportStore) Dir() string {
	return s.dir
}

// WriteReport persists report as indented JSON and returns the file name.
// Two reports written within the same second get distinct names.
func (s *ReportStore) WriteReport(report *model.BenchmarkReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", internalErrors.NewPersistenceError(s.dir, fmt.Errorf("encode report: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", internalErrors.NewPersistenceError(s.dir, err)
	}

	stamp := s.now().Format(reportTimeLayout)
	for i := 1; i <= maxCollisionSuffix; i++ {
		name := reportPrefix + stamp + reportSuffix
		if i > 1 {
			name = fmt.Sprintf("%s%s_%d%s", reportPrefix, stamp, i, reportSuffix)
		}
		path := filepath.Join(s.dir, name)

		f, err := createExclusive(path)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", internalErrors.NewPersistenceError(path, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", internalErrors.NewPersistenceError(path, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", internalErrors.NewPersistenceError(path, err)
		}
		return name, nil
	}
	return "", internalErrors.NewPersistenceError(s.dir, fmt.Errorf("no free report name for %s", stamp))
}

// ListReports returns the summary of every readable report, newest first.
// A missing directory yields an empty list; unreadable files are skipped.
func (s *ReportStore) ListReports() ([]model.ReportListing, error) {
	names, err := listNames(s.dir, func(name string) bool {
		return strings.HasPrefix(name, reportPrefix) && strings.HasSuffix(name, reportSuffix)
	})
	if err != nil {
		return nil, err
	}

	listings := make([]model.ReportListing, 0, len(names))
	for _, name := range names {
		var report model.BenchmarkReport
		if err := LoadJSON(filepath.Join(s.dir, name), &report); err != nil {
			continue
		}
		listings = append(listings, model.ReportListing{
			Filename:  name,
			Timestamp: report.Timestamp,
			NumGames:  report.NumGames,
			Summary:   report.Summary,
		})
	}
	return listings, nil
}

// LoadReport reads one report by file name
func (s *ReportStore) LoadReport(name string) (*model.BenchmarkReport, error) {
	if !validFileName(name) || !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportSuffix) {
		return nil, internalErrors.NewInvalidFilenameError(name, reportPrefix+"*"+reportSuffix)
	}

	var report model.BenchmarkReport
	if err := LoadJSON(filepath.Join(s.dir, name), &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, internalErrors.NewFileNotFoundError(name)
		}
		return nil, err
	}
	return &report, nil
}

// validFileName rejects anything that could escape the store directory
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

// listNames returns the matching regular files of dir newest first: names are
// compared with digit runs as numbers, so a collision suffix _10 sorts after _9.
func listNames(dir string, match func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		return naturalLess(names[j], names[i])
	})
	return names, nil
}

// naturalLess orders a before b comparing runs of ASCII digits by numeric value
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, ra := nextChunk(a)
		cb, rb := nextChunk(b)
		if ca != cb {
			if isDigit(ca[0]) && isDigit(cb[0]) {
				na, nb := strings.TrimLeft(ca, "0"), strings.TrimLeft(cb, "0")
				if len(na) != len(nb) {
					return len(na) < len(nb)
				}
				if na != nb {
					return na < nb
				}
				return len(ca) < len(cb)
			}
			return ca < cb
		}
		a, b = ra, rb
	}
	return len(a) < len(b)
}

// nextChunk splits off the leading run of digits or of non-digits
func nextChunk(s string) (chunk, rest string) {
	digits := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
