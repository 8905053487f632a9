package model

// Outcome codes follow the PGN result tag.
const (
	OutcomeWhiteWins  = "1-0"
	OutcomeBlackWins  = "0-1"
	OutcomeDraw       = "1/2-1/2"
	OutcomeUnfinished = "*"
)

// Termination reasons recorded on a finished game.
const (
	ReasonCheckmate    = "checkmate"
	ReasonStalemate    = "stalemate"
	ReasonInsufficient = "insufficient"
	ReasonFiftyMove    = "50-move"
	ReasonRepetition   = "repetition"
	ReasonUnknown      = "unknown"
	ReasonError        = "error"
)

// MoveSource identifies which side produced a ply.
type MoveSource string

const (
	SourceBaseline  MoveSource = "baseline"
	SourceRetrieval MoveSource = "retrieval"
)

// PlyRecord is the per-ply trace of a game.
type PlyRecord struct {
	Ply       int        `json:"ply"`
	Source    MoveSource `json:"source"`
	Move      string     `json:"move"` // UCI notation
	SAN       string     `json:"san"`
	LatencyMs float64    `json:"latency_ms"`
	Hit       *bool      `json:"hit,omitempty"` // only set for retrieval plies
}

// GameResult is the immutable outcome of one benchmark game.
type GameResult struct {
	Game           int         `json:"game"` // 1-based submission index
	Result         string      `json:"result"`
	Reason         string      `json:"reason"`
	Moves          int         `json:"moves"`
	AvgBaselineMs  float64     `json:"avg_baseline_ms"`
	AvgRetrievalMs float64     `json:"avg_retrieval_ms"`
	Hits           int         `json:"hits"`
	Misses         int         `json:"misses"`
	PGN            string      `json:"pgn"`
	Plies          []PlyRecord `json:"plies,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Failed reports whether the game ended because its session failed.
func (g *GameResult) Failed() bool {
	return g.Error != ""
}

// FailedGame builds the placeholder result kept in the report for a game whose session failed.
func FailedGame(game int, err error) *GameResult {
	return &GameResult{
		Game:   game,
		Result: OutcomeUnfinished,
		Reason: ReasonError,
		Error:  err.Error(),
	}
}
