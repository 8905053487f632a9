package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// DefaultLichessURL is the public Lichess API root
const DefaultLichessURL = "https://lichess.org"

// OpenPGN opens a PGN file, decompressing it when the name ends in .zst
func OpenPGN(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pgn: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdFile{Decoder: dec, file: f}, nil
}

// zstdFile closes both the decoder and the underlying file
type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}

// LichessClient downloads a player's games as PGN
type LichessClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewLichessClient creates a client against the public API
func NewLichessClient() *LichessClient {
	return &LichessClient{
		BaseURL: DefaultLichessURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchGames streams the last max games of user. The caller closes the body.
func (c *LichessClient) FetchGames(ctx context.Context, user string, max int) (io.ReadCloser, error) {
	if strings.TrimSpace(user) == "" {
		return nil, fmt.Errorf("lichess user is required")
	}
	q := url.Values{}
	q.Set("max", strconv.Itoa(max))
	q.Set("pgnInJson", "false")
	endpoint := fmt.Sprintf("%s/api/games/user/%s?%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(user), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lichess request: %w", err)
	}
	req.Header.Set("Accept", "application/x-chess-pgn")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch lichess games: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch lichess games: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
