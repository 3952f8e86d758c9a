package crawl

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/metrics"
	"github.com/smartcampus/newsdigest/internal/news"
)

// walkSection traverses one listing section page by page, extracting every
// entry whose resolved publish date names the target date. It stops when no
// next-page control exists, the depth bound is reached, or a page fetch
// fails; whatever accumulated so far is returned in all three cases.
func (c *Crawler) walkSection(ctx context.Context, sess *Session, startURL, target string) []news.Item {
	var items []news.Item
	pageURL := startURL

	for depth := 1; depth <= c.cfg.MaxDepth && pageURL != ""; depth++ {
		body, err := sess.get(ctx, pageURL)
		if err != nil {
			metrics.FetchErrors.WithLabelValues("list").Inc()
			c.logger.Warn("list page fetch failed, stopping section",
				zap.String("url", pageURL), zap.Int("page", depth), zap.Error(err))
			return items
		}
		metrics.PagesFetched.WithLabelValues("list").Inc()

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("list page parse failed, stopping section",
				zap.String("url", pageURL), zap.Error(err))
			return items
		}

		list := findListContainer(doc)
		if list == nil {
			// Expected container missing means no data on this page.
			c.logger.Warn("list container not found", zap.String("url", pageURL))
			return items
		}

		base, err := url.Parse(pageURL)
		if err != nil {
			c.logger.Warn("bad page url", zap.String("url", pageURL), zap.Error(err))
			return items
		}

		entries := list.Find("li")
		c.logger.Debug("listing page parsed",
			zap.Int("page", depth), zap.Int("entries", entries.Length()))

		entries.Each(func(_ int, li *goquery.Selection) {
			item, ok := c.extractListEntry(ctx, sess, base, li, target)
			if ok {
				metrics.ItemsExtracted.Inc()
				items = append(items, item)
			}
		})

		pageURL = nextPageURL(doc, base)
	}
	return items
}

// findListContainer locates the entry list: an exact ul.list first, then any
// ul whose class mentions "list".
func findListContainer(doc *goquery.Document) *goquery.Selection {
	list := doc.Find("ul.list").First()
	if list.Length() > 0 {
		return list
	}
	list = doc.Find(`ul[class*="list"]`).First()
	if list.Length() > 0 {
		return list
	}
	return nil
}

// extractListEntry resolves one li to an announcement: follows the anchor to
// the detail page, resolves the publish date, and keeps the item only when
// that date names the target. Fetch or parse trouble on a single entry is
// contained here so the rest of the page still processes.
func (c *Crawler) extractListEntry(
	ctx context.Context,
	sess *Session,
	base *url.URL,
	li *goquery.Selection,
	target string,
) (news.Item, bool) {
	anchor := li.Find("a").First()
	if anchor.Length() == 0 {
		return news.Item{}, false
	}
	href, _ := anchor.Attr("href")
	if href == "" {
		return news.Item{}, false
	}
	itemURL := resolveAgainst(base, href)

	listTitle := strings.TrimSpace(anchor.AttrOr("title", ""))
	if listTitle == "" {
		listTitle = strings.TrimSpace(anchor.Text())
	}
	listDateHint := strings.TrimSpace(li.Find("span").First().Text())

	item, err := c.extractDetail(ctx, sess, itemURL, listTitle, listDateHint)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("detail").Inc()
		c.logger.Warn("detail extraction failed, skipping entry",
			zap.String("url", itemURL), zap.Error(err))
		return news.Item{}, false
	}
	metrics.PagesFetched.WithLabelValues("detail").Inc()

	if !news.MatchesDate(item.PublishTime, target, c.clock.Now()) {
		return news.Item{}, false
	}
	return item, true
}

// nextPageURL finds the enabled next-page control inside the pagination
// container. A disabled control (p_next_d) or a javascript pseudo-href means
// the last page was reached.
func nextPageURL(doc *goquery.Document, base *url.URL) string {
	pagination := doc.Find(`div[class*="pagination"]`).First()
	if pagination.Length() == 0 {
		return ""
	}

	link := pagination.Find("span.p_next").Not(".p_next_d").Find("a").First()
	if link.Length() == 0 {
		// Fallback: any anchor labeled 下页.
		pagination.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.Contains(a.Text(), "下页") {
				link = a
				return false
			}
			return true
		})
	}
	if link == nil || link.Length() == 0 {
		return ""
	}

	href, _ := link.Attr("href")
	if href == "" || strings.Contains(href, "javascript") {
		return ""
	}
	return resolveAgainst(base, href)
}

func resolveAgainst(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
