package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/util"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"go.uber.org/zap"
)

// tweetCountPattern captures the magnitude string next to the literal
// "Tweets" marker in a live-listing description, e.g. "Under 12.3K Tweets".
var tweetCountPattern = regexp.MustCompile(`(?i)([\d.,]+[KM]?)\s+Tweets`)

// ParserService extracts ranked hashtag records from getdaytrends ranking
// tables. The site has two row templates, handled by two named strategies
// selected by caller context rather than auto-detection.
type ParserService struct {
	logger *zap.Logger
}

func NewParserService(logger *zap.Logger) *ParserService {
	return &ParserService{logger: logger}
}

// ParseNowRanking handles the live-listing template: each row has a
// "td.main" cell with a hyperlinked tag and a "div.desc" sub-element
// carrying free text like "24.5K Tweets". Rank comes from the "th.pos"
// cell when present, otherwise the 1-based emit order. The record date is
// the supplied observation time truncated to a date.
func (p *ParserService) ParseNowRanking(doc *goquery.Document, region, period string, at time.Time, maxRows int) ([]domain.Record, error) {
	records := make([]domain.Record, 0, maxRows)
	skipped := 0
	date := util.FormatDate(at)
	normalizedRegion := domain.NormalizeRegion(region)

	doc.Find("table.ranking tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		main := row.Find("td.main").First()
		if main.Length() == 0 {
			skipped++
			return true
		}

		tag := strings.TrimSpace(main.Find("a").First().Text())
		if tag == "" {
			tag = strings.TrimSpace(main.Text())
		}
		tag = strings.ToLower(tag)
		if tag == "" {
			skipped++
			return true
		}

		count := 0
		desc := strings.TrimSpace(main.Find("div.desc").First().Text())
		if m := tweetCountPattern.FindStringSubmatch(desc); m != nil {
			count = ParseCount(m[1])
		}

		rank := len(records) + 1
		if pos := strings.TrimSpace(row.Find("th.pos").First().Text()); pos != "" {
			if n, err := strconv.Atoi(pos); err == nil && n > 0 {
				rank = n
			}
		}

		records = append(records, domain.Record{
			Tag:    tag,
			Count:  count,
			Rank:   rank,
			Region: normalizedRegion,
			Period: period,
			Date:   date,
		})
		return len(records) < maxRows
	})

	if len(records) == 0 {
		return nil, apperrors.NewParseError(
			"no records in live ranking table, markup may have changed", region, skipped)
	}

	p.logger.Debug("Parsed live ranking",
		zap.String("region", normalizedRegion),
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped))

	return records, nil
}

// ParseTopRanking handles the history template: three plain cells per row
// holding tag, count and date text in order. The date cell is resolved
// through NormalizeDate against the supplied observation time.
func (p *ParserService) ParseTopRanking(doc *goquery.Document, region, period string, at time.Time, maxRows int) ([]domain.Record, error) {
	records := make([]domain.Record, 0, maxRows)
	skipped := 0
	normalizedRegion := domain.NormalizeRegion(region)

	doc.Find("table.ranking tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			skipped++
			return true
		}

		tag := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		if tag == "" {
			skipped++
			return true
		}

		count := ParseCount(cells.Eq(1).Text())
		date := NormalizeDate(firstText(cells.Eq(2)), at)

		records = append(records, domain.Record{
			Tag:    tag,
			Count:  count,
			Rank:   len(records) + 1,
			Region: normalizedRegion,
			Period: period,
			Date:   date,
		})
		return len(records) < maxRows
	})

	if len(records) == 0 {
		return nil, apperrors.NewParseError(
			"no records in history ranking table, markup may have changed", region, skipped)
	}

	p.logger.Debug("Parsed history ranking",
		zap.String("region", normalizedRegion),
		zap.String("period", period),
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped))

	return records, nil
}

// firstText returns the first non-empty text node directly under the
// selection. History date cells carry extra markup after the date text.
func firstText(sel *goquery.Selection) string {
	result := ""
	sel.Contents().EachWithBreak(func(i int, node *goquery.Selection) bool {
		text := strings.TrimSpace(node.Text())
		if text == "" {
			return true
		}
		result = text
		return false
	})
	return result
}
