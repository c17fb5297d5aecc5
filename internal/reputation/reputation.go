// Package reputation checks URLs against the PhishTank signature
// database. The component is optional: without configuration it is a
// no-op, and a failed lookup means "unknown", never "safe" or
// "malicious".
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// Checker performs cached PhishTank lookups.
type Checker struct {
	logger   *zap.Logger
	cfg      *config.ReputationConfig
	client   *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
}

// checkResponse mirrors the relevant slice of the PhishTank checkurl
// response.
type checkResponse struct {
	Results struct {
		InDatabase bool   `json:"in_database"`
		Verified   bool   `json:"verified"`
		PhishID    int64  `json:"phish_id"`
		Valid      string `json:"valid"`
	} `json:"results"`
}

// New creates a Checker. rdb may be nil, in which case lookups are
// uncached but still functional.
func New(logger *zap.Logger, cfg *config.ReputationConfig, rdb *redis.Client) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		logger:   logger,
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		rdb:      rdb,
		cacheTTL: cfg.CacheTTL,
	}
}

// Enabled reports whether lookups will actually happen.
func (c *Checker) Enabled() bool { return c.cfg.Enabled }

// Check looks target up. A confirmed signature match returns a critical
// finding; everything else, including lookup failure, returns nil.
func (c *Checker) Check(ctx context.Context, target string) *types.Finding {
	if !c.cfg.Enabled {
		return nil
	}

	cacheKey := "reputation:url:" + target
	if c.rdb != nil {
		if val, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return c.findingFor(target, val)
		}
	}

	verdict, err := c.lookup(ctx, target)
	if err != nil {
		// Unknown, not safe: skip silently apart from debug logging.
		c.logger.Debug("reputation lookup failed", zap.String("url", target), zap.Error(err))
		return nil
	}

	if c.rdb != nil {
		_ = c.rdb.Set(ctx, cacheKey, verdict, c.cacheTTL).Err()
	}
	return c.findingFor(target, verdict)
}

func (c *Checker) lookup(ctx context.Context, target string) (string, error) {
	form := url.Values{"url": {target}, "format": {"json"}}
	if c.cfg.APIKey != "" {
		form.Set("app_key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "phishing-detector/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reputation service returned %d", resp.StatusCode)
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding reputation response: %w", err)
	}

	if parsed.Results.InDatabase && parsed.Results.Verified && parsed.Results.Valid != "no" {
		return fmt.Sprintf("malicious:%d", parsed.Results.PhishID), nil
	}
	return "clean", nil
}

func (c *Checker) findingFor(target, verdict string) *types.Finding {
	if !strings.HasPrefix(verdict, "malicious") {
		return nil
	}
	id := strings.TrimPrefix(verdict, "malicious:")
	f := types.NewFinding(types.CategoryURLReputation, types.SeverityCritical,
		fmt.Sprintf("URL verified as phishing by signature database (id %s): %s", id, target))
	return &f
}
