package docstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
)

const maxGistBody = 10 << 20

// StatusError reports an unexpected HTTP status from the document host.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docstore: %s: http %d: %s", e.Op, e.Status, e.Body)
}

// GistStore keeps the document as one file of a GitHub gist.
// GitHub has no conditional PATCH, so Put compares the content hash right before writing;
// a writer landing between that read and the PATCH is still overwritten.
type GistStore struct {
	client   *http.Client
	base     string
	id       string
	filename string
}

// NewGistStore builds a store authenticated with the gist token. A nil base uses
// http.DefaultTransport.
func NewGistStore(cfg config.GistConfig, timeout time.Duration, base http.RoundTripper) (*GistStore, error) {
	if cfg.ID == "" || cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	if base == nil {
		base = http.DefaultTransport
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	filename := cfg.Filename
	if filename == "" {
		filename = "budget.json"
	}
	client := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
	return &GistStore{client: client, base: apiBase, id: cfg.ID, filename: filename}, nil
}

type gistFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistPayload struct {
	Files map[string]*gistFile `json:"files"`
}

// ContentVersion is the version the gist store assigns to content.
func ContentVersion(content []byte) Version {
	if len(content) == 0 {
		return ""
	}
	sum := sha256.Sum256(content)
	return Version(hex.EncodeToString(sum[:]))
}

// Get implements Store.
func (s *GistStore) Get(ctx context.Context) ([]byte, Version, error) {
	start := time.Now()
	var payload gistPayload
	if err := s.do(ctx, http.MethodGet, s.gistURL(), nil, &payload); err != nil {
		return nil, "", err
	}
	file, ok := payload.Files[s.filename]
	if !ok || file == nil {
		logger.Store.Debug("gist file missing",
			slog.String("event", "store.get"),
			slog.String("backend", config.BackendGist),
			slog.String("file", s.filename),
		)
		return nil, "", nil
	}
	content := []byte(file.Content)
	if file.Truncated && file.RawURL != "" {
		raw, err := s.raw(ctx, file.RawURL)
		if err != nil {
			return nil, "", err
		}
		content = raw
	}
	logger.Store.Debug("gist read",
		slog.String("event", "store.get"),
		slog.String("backend", config.BackendGist),
		slog.Int("bytes", len(content)),
		slog.Bool("truncated", file.Truncated),
		slog.Duration("duration", logger.Took(start)),
	)
	return content, ContentVersion(content), nil
}

// Put implements Store.
func (s *GistStore) Put(ctx context.Context, content []byte, expected Version) (Version, error) {
	_, current, err := s.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("docstore: gist precondition read: %w", err)
	}
	if current != expected {
		return "", ErrConflict
	}

	body, err := json.Marshal(gistPayload{Files: map[string]*gistFile{
		s.filename: {Content: string(content)},
	}})
	if err != nil {
		return "", err
	}
	if err := s.do(ctx, http.MethodPatch, s.gistURL(), body, nil); err != nil {
		return "", err
	}
	return ContentVersion(content), nil
}

func (s *GistStore) gistURL() string {
	return s.base + "/gists/" + s.id
}

func (s *GistStore) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("docstore: gist %s: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGistBody))
	if err != nil {
		return fmt.Errorf("docstore: gist read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "gist " + strings.ToLower(method), Status: resp.StatusCode, Body: snippet(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("docstore: gist decode: %w", err)
	}
	return nil
}

func (s *GistStore) raw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docstore: gist raw: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGistBody))
	if err != nil {
		return nil, fmt.Errorf("docstore: gist raw body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "gist raw", Status: resp.StatusCode, Body: snippet(data)}
	}
	return data, nil
}

func snippet(data []byte) string {
	return logger.SanitizeLimit(string(data), 200)
}
