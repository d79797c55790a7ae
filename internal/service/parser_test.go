package service

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/trendwatch-go/internal/util"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"go.uber.org/zap"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}
	return doc
}

const liveRankingHTML = `
<html><body>
<table class="ranking">
<tr><th class="pos">1</th><td class="main"><a href="/t/1">#GoLang</a><div class="desc">Under 25.4K Tweets</div></td></tr>
<tr><td class="ad">sponsored</td></tr>
<tr><th class="pos">2</th><td class="main"><a href="/t/2">#OpenSource</a><div class="desc">112K Tweets</div></td></tr>
<tr><th class="pos">3</th><td class="main"><a href="/t/3">#Monday</a><div class="desc">Trending now</div></td></tr>
</table>
</body></html>`

const topRankingHTML = `
<html><body>
<table class="ranking">
<tr><td>#WorldCup</td><td>2.1M</td><td>Jan 5, 2024 <span>peak</span></td></tr>
<tr><td>#Elections</td><td>845.2K</td><td>3 days ago</td></tr>
<tr><td></td><td>99K</td><td>Jan 1, 2024</td></tr>
<tr><td>#Cricket</td><td>410K</td><td>Dec 31, 23</td></tr>
</table>
</body></html>`

func TestParseNowRanking(t *testing.T) {
	parser := NewParserService(zap.NewNop())
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	records, err := parser.ParseNowRanking(mustDoc(t, liveRankingHTML), "World", "Now", at, 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Tag != "#golang" {
		t.Errorf("expected lowercased tag #golang, got %q", first.Tag)
	}
	if first.Count != 25400 {
		t.Errorf("expected count 25400, got %d", first.Count)
	}
	if first.Rank != 1 {
		t.Errorf("expected rank 1, got %d", first.Rank)
	}
	if first.Region != "World" {
		t.Errorf("expected region World, got %q", first.Region)
	}
	if first.Date != util.FormatDate(at) {
		t.Errorf("expected observation date, got %q", first.Date)
	}

	if records[1].Tag != "#opensource" || records[1].Count != 112000 {
		t.Errorf("unexpected second record: %+v", records[1])
	}

	// Description without a tweet magnitude yields zero, not a dropped row.
	if records[2].Tag != "#monday" || records[2].Count != 0 {
		t.Errorf("unexpected third record: %+v", records[2])
	}
}

func TestParseNowRankingHonorsMaxRows(t *testing.T) {
	parser := NewParserService(zap.NewNop())
	at := time.Now()

	records, err := parser.ParseNowRanking(mustDoc(t, liveRankingHTML), "World", "Now", at, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected maxRows cap of 2, got %d records", len(records))
	}
}

func TestParseNowRankingEmptyTableIsParseError(t *testing.T) {
	parser := NewParserService(zap.NewNop())

	_, err := parser.ParseNowRanking(mustDoc(t, `<html><body><p>no table</p></body></html>`), "World", "Now", time.Now(), 50)
	if err == nil {
		t.Fatal("expected parse error for missing table")
	}
	if !apperrors.IsParseError(err) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestParseTopRanking(t *testing.T) {
	parser := NewParserService(zap.NewNop())
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	records, err := parser.ParseTopRanking(mustDoc(t, topRankingHTML), "India", "Week", at, 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records (one tagless row skipped), got %d", len(records))
	}

	if records[0].Tag != "#worldcup" || records[0].Count != 2100000 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[0].Date != "2024-01-05" {
		t.Errorf("expected absolute date 2024-01-05, got %q", records[0].Date)
	}
	if records[0].Region != "India" {
		t.Errorf("expected region India, got %q", records[0].Region)
	}

	if records[1].Date != util.FormatDate(at.AddDate(0, 0, -3)) {
		t.Errorf("expected relative date resolution, got %q", records[1].Date)
	}

	// Ranks follow emit order, so the skipped row leaves no gap.
	for i, rec := range records {
		if rec.Rank != i+1 {
			t.Errorf("expected rank %d at position %d, got %d", i+1, i, rec.Rank)
		}
	}

	if records[2].Date != "2023-12-31" {
		t.Errorf("expected two-digit-year date 2023-12-31, got %q", records[2].Date)
	}
}

func TestParseTopRankingSingleRow(t *testing.T) {
	parser := NewParserService(zap.NewNop())
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	html := `<table class="ranking"><tr><td>#Solo</td><td>5.5K</td><td>Jan 2, 2025</td></tr></table>`
	records, err := parser.ParseTopRanking(mustDoc(t, html), "World", "Year", at, 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Tag != "#solo" || rec.Count != 5500 || rec.Rank != 1 || rec.Period != "Year" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Date != "2025-01-02" {
		t.Errorf("expected 2025-01-02, got %q", rec.Date)
	}
}

func TestParseTopRankingUnknownRegion(t *testing.T) {
	parser := NewParserService(zap.NewNop())

	html := `<table class="ranking"><tr><td>#x</td><td>1K</td><td>Jan 2, 2025</td></tr></table>`
	records, err := parser.ParseTopRanking(mustDoc(t, html), "Atlantis", "Week", time.Now(), 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records[0].Region != "Unknown" {
		t.Errorf("expected Unknown region, got %q", records[0].Region)
	}
}
