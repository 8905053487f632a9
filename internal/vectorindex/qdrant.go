package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
)

const defaultQdrantPort = 6334

// QdrantConfig locates a Qdrant collection
type QdrantConfig struct {
	URL        string // "host", "host:port" or "http(s)://host[:port]"
	APIKey     string
	Collection string
	Logger     zerolog.Logger
}

// QdrantIndex is an Index backed by a Qdrant collection over gRPC
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	log        zerolog.Logger
}

// parseQdrantURL splits a configured URL into host, port and TLS flag
func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, false, internalErrors.NewConfigError("QDRANT_URL", "missing")
	}
	if !strings.Contains(raw, "://") {
		raw = "grpc://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, internalErrors.NewConfigError("QDRANT_URL", err.Error())
	}
	host = u.Hostname()
	if host == "" {
		return "", 0, false, internalErrors.NewConfigError("QDRANT_URL", "missing host")
	}
	port = defaultQdrantPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, internalErrors.NewConfigError("QDRANT_URL", "invalid port "+p)
		}
	}
	return host, port, u.Scheme == "https", nil
}

// NewQdrantIndex connects to Qdrant. Missing credentials are a configuration error.
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Collection == "" {
		return nil, internalErrors.NewConfigError("QDRANT_COLLECTION", "missing")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", host, port, err)
	}
	return &QdrantIndex{client: client, collection: cfg.Collection, log: cfg.Logger}, nil
}

// EnsureCollection creates the collection with cosine distance when it does not exist
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}
	q.log.Info().Str("collection", q.collection).Int("dim", features.Dim).Msg("creating collection")
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(features.Dim),
			Distance: qdrant.Distance_Cosine,
			QuantizationConfig: qdrant.NewQuantizationBinary(&qdrant.BinaryQuantization{
				AlwaysRam: qdrant.PtrOf(true),
			}),
		}),
	})
}

// Query implements Index
func (q *QdrantIndex) Query(ctx context.Context, vector features.Vector, limit int) ([]Match, error) {
	if err := checkDim(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Match{}, nil
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		payload, err := payloadFromQdrant(p.GetPayload())
		if err != nil {
			q.log.Debug().Err(err).Str("point", p.GetId().String()).Msg("skipping malformed payload")
			continue
		}
		matches = append(matches, Match{
			ID:      pointID(p.GetId()),
			Payload: payload,
			Score:   float64(p.GetScore()),
		})
	}
	return matches, nil
}

// Upsert implements Index
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if err := checkDim(p.Vector); err != nil {
			return err
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"fen":         p.Payload.FEN,
				"best_move":   p.Payload.BestMove,
				"score":       p.Payload.Score,
				"move_number": int64(p.Payload.MoveNumber),
				"source":      p.Payload.Source,
			}),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Count implements Index
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(n), nil
}

// Close releases the gRPC connection
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadFromQdrant converts a stored payload, rejecting missing or mistyped fields
func payloadFromQdrant(values map[string]*qdrant.Value) (Payload, error) {
	var p Payload

	move, ok := values["best_move"]
	if !ok || move == nil {
		return p, internalErrors.NewPayloadError("best_move", "missing")
	}
	if _, isString := move.GetKind().(*qdrant.Value_StringValue); !isString {
		return p, internalErrors.NewPayloadError("best_move", "not a string")
	}
	p.BestMove = move.GetStringValue()

	if v, ok := values["score"]; ok && v != nil {
		switch k := v.GetKind().(type) {
		case *qdrant.Value_DoubleValue:
			p.Score = k.DoubleValue
		case *qdrant.Value_IntegerValue:
			p.Score = float64(k.IntegerValue)
		default:
			return p, internalErrors.NewPayloadError("score", "not a number")
		}
	}
	if v, ok := values["move_number"]; ok && v != nil {
		switch k := v.GetKind().(type) {
		case *qdrant.Value_IntegerValue:
			p.MoveNumber = int(k.IntegerValue)
		case *qdrant.Value_DoubleValue:
			p.MoveNumber = int(k.DoubleValue)
		}
	}
	if v, ok := values["fen"]; ok && v != nil {
		p.FEN = v.GetStringValue()
	}
	if v, ok := values["source"]; ok && v != nil {
		p.Source = v.GetStringValue()
	}

	return p, p.Validate()
}
