package model

// AnalyticsDashboard aggregates every persisted benchmark report
type AnalyticsDashboard struct {
	TotalReports     int            `json:"total_reports"`
	TotalGames       int            `json:"total_games"`
	BaselineWins     int            `json:"baseline_wins"`
	RetrievalWins    int            `json:"retrieval_wins"`
	Draws            int            `json:"draws"`
	Unfinished       int            `json:"unfinished"`
	AvgMovesPerGame  float64        `json:"avg_moves_per_game"`
	TotalHits        int            `json:"total_hits"`
	TotalMisses      int            `json:"total_misses"`
	OverallHitRate   float64        `json:"overall_hit_rate_pct"`
	BestHitRate      float64        `json:"best_hit_rate_pct"`
	LatestReport     *ReportListing `json:"latest_report,omitempty"`
	HitRateHistory   []HitRatePoint `json:"hit_rate_history"`
	StoredGameRecord int            `json:"stored_game_records"`
}

// HitRatePoint is one report's hit rate, oldest first
type HitRatePoint struct {
	Filename   string  `json:"filename"`
	Timestamp  string  `json:"timestamp"`
	HitRatePct float64 `json:"hit_rate_pct"`
}
