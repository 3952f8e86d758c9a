package crawl

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// extractDetail fetches an article's detail page and assembles a normalized
// item. Field resolution order:
//
//	title: article title block h3 -> page <title> -> list anchor title
//	date:  labeled 发布日期/发布时间 span -> list MM-DD hint + current year
//	body:  v_news_content paragraphs, collapsed to a clean line stream
//
// A missing required field yields an error and the entry is skipped.
func (c *Crawler) extractDetail(
	ctx context.Context,
	sess *Session,
	itemURL, listTitle, listDateHint string,
) (news.Item, error) {
	body, err := sess.get(ctx, itemURL)
	if err != nil {
		return news.Item{}, fmt.Errorf("fetch detail: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return news.Item{}, fmt.Errorf("parse detail: %w", err)
	}

	titleBlock := doc.Find("div.art-tit.cont-tit").First()

	title := strings.TrimSpace(titleBlock.Find("h3").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = listTitle
	}

	publishTime := extractLabeledDate(titleBlock)
	if publishTime == "" && listDateHint != "" {
		publishTime = news.CompleteYear(listDateHint, c.clock.Now())
		if publishTime != "" {
			c.logger.Debug("publish year inferred from list hint",
				zap.String("url", itemURL), zap.String("hint", listDateHint))
		}
	}

	content := extractContent(doc)

	item := news.Item{
		URL:          itemURL,
		PublishTime:  publishTime,
		Title:        news.Sanitize(title),
		ContentClean: content,
		Attachments:  []string{},
	}
	if item.Title == "" || item.PublishTime == "" || item.ContentClean == "" {
		return news.Item{}, fmt.Errorf("incomplete article (title=%t date=%t content=%t)",
			item.Title != "", item.PublishTime != "", item.ContentClean != "")
	}
	return item, nil
}

// extractLabeledDate scans the title block's spans for a 发布日期/发布时间
// label carrying a YYYY-MM-DD value.
func extractLabeledDate(titleBlock *goquery.Selection) string {
	var found string
	titleBlock.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if !strings.Contains(text, "发布日期") && !strings.Contains(text, "发布时间") {
			return true
		}
		if m := isoDatePattern.FindString(text); m != "" {
			found = m
			return false
		}
		return true
	})
	return found
}

// extractContent joins the article body's paragraph blocks into one
// blank-line-free text stream.
func extractContent(doc *goquery.Document) string {
	container := doc.Find("div.v_news_content").First()
	if container.Length() == 0 {
		return ""
	}

	var parts []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		if text := strings.TrimSpace(container.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return news.CollapseWhitespace(news.Sanitize(strings.Join(parts, "\n")))
}
