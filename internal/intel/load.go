package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opensource-finance/preflight/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrSourceMissing is returned when a feed file does not exist.
var ErrSourceMissing = errors.New("intel source not found")

// FileSource reads a feed from a JSON or YAML file.
type FileSource struct {
	Path string
}

// LoadFeed reads and decodes the feed. The format follows the file extension;
// anything other than .yaml/.yml is decoded as JSON.
func (s FileSource) LoadFeed(ctx context.Context) (*domain.IntelFeed, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read intel feed: %w", err)
	}
	return DecodeFeed(data, filepath.Ext(s.Path))
}

// DecodeFeed decodes a feed document. ext selects YAML (".yaml", ".yml") or JSON.
func DecodeFeed(data []byte, ext string) (*domain.IntelFeed, error) {
	var feed domain.IntelFeed

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &feed); err != nil {
			return nil, fmt.Errorf("failed to decode yaml intel feed: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &feed); err != nil {
			return nil, fmt.Errorf("failed to decode json intel feed: %w", err)
		}
	}

	return &feed, nil
}

// Load builds an index from a source. A missing or malformed source is not
// fatal: the failure is logged and an empty index is returned.
func Load(ctx context.Context, src domain.IntelSource, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if src == nil {
		logger.Warn("no scam intelligence source configured, index is empty")
		return Empty()
	}

	feed, err := src.LoadFeed(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceMissing) {
			logger.Warn("scam intelligence source not found, index is empty", "error", err)
		} else {
			logger.Warn("failed to load scam intelligence, index is empty", "error", err)
		}
		return Empty()
	}

	ix := NewIndex(feed)
	stats := ix.Stats()
	logger.Info("scam intelligence loaded",
		"wallets", stats.Wallets,
		"contracts", stats.Contracts,
		"clusters", stats.Clusters,
		"flagged", stats.Flagged,
	)
	return ix
}
