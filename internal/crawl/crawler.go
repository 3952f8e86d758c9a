package crawl

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

// Config governs crawl behavior for the single origin site.
type Config struct {
	BaseURL   string
	Sections  []string
	MaxDepth  int
	Timeout   time.Duration
	UserAgent string
}

// Crawler walks the origin's news sections and extracts announcements for a
// target date. All I/O is sequential and blocking: one page, one article at
// a time, which bounds load on the origin.
type Crawler struct {
	cfg    Config
	clock  news.Clock
	logger *zap.Logger
}

// New builds a Crawler.
func New(cfg Config, clock news.Clock, logger *zap.Logger) *Crawler {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return &Crawler{cfg: cfg, clock: clock, logger: logger}
}

// CrawlDate fetches every announcement published on target (full ISO date)
// across all configured sections. Partial results are valid: page and
// article failures are logged and skipped, never propagated.
func (c *Crawler) CrawlDate(ctx context.Context, target string) []news.Item {
	sess := c.AcquireSession(ctx, c.cfg.BaseURL)

	sections := c.sectionURLs()
	var items []news.Item
	for _, section := range sections {
		c.logger.Info("walking section", zap.String("section", section), zap.String("target", target))
		items = append(items, c.walkSection(ctx, sess, section, target)...)
	}

	crawlTime := c.clock.Now().Format(news.DateLayout)
	valid := items[:0]
	for _, it := range items {
		it.ID = fmt.Sprintf("news_%d", len(valid)+1)
		it.Source = news.SourceLabel
		it.CrawlTime = crawlTime
		if it.Attachments == nil {
			it.Attachments = []string{}
		}
		if !it.Valid() {
			c.logger.Warn("dropping incomplete item", zap.String("url", it.URL))
			continue
		}
		valid = append(valid, it)
	}

	c.logger.Info("crawl finished",
		zap.String("target", target), zap.Int("items", len(valid)))
	return valid
}

// sectionURLs resolves configured section paths against the base URL. With
// no sections configured the base page itself is the only listing.
func (c *Crawler) sectionURLs() []string {
	if len(c.cfg.Sections) == 0 {
		return []string{c.cfg.BaseURL}
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return c.cfg.Sections
	}
	urls := make([]string, 0, len(c.cfg.Sections))
	for _, section := range c.cfg.Sections {
		urls = append(urls, resolveAgainst(base, section))
	}
	return urls
}
