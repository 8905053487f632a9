package model

// DefaultMode is the mode label written into reports.
const DefaultMode = "retrieval + random fallback"

// Summary holds the aggregate statistics of a benchmark run.
type Summary struct {
	BaselineWins   int     `json:"baseline_wins"`
	RetrievalWins  int     `json:"retrieval_wins"`
	Draws          int     `json:"draws"`
	Unfinished     int     `json:"unfinished"`
	AvgMoves       int     `json:"avg_moves"`
	AvgBaselineMs  int     `json:"avg_baseline_ms"`
	AvgRetrievalMs int     `json:"avg_retrieval_ms"`
	TotalHits      int     `json:"total_hits"`
	TotalMisses    int     `json:"total_misses"`
	HitRatePct     float64 `json:"hit_rate_pct"`
}

// BenchmarkReport is the persisted deliverable of a batch run.
// Games are ordered by submission index, not completion order.
type BenchmarkReport struct {
	Timestamp string        `json:"timestamp"`
	Mode      string        `json:"mode"`
	NumGames  int           `json:"num_games"`
	Workers   int           `json:"workers"`
	Summary   Summary       `json:"summary"`
	Games     []*GameResult `json:"games"`
}

// ReportListing is the summary row returned when listing persisted reports.
type ReportListing struct {
	Filename  string  `json:"filename"`
	Timestamp string  `json:"timestamp"`
	NumGames  int     `json:"num_games"`
	Summary   Summary `json:"summary"`
}

// GameRecord is a persisted PGN file.
type GameRecord struct {
	Filename string `json:"filename"`
	PGN      string `json:"pgn"`
}
