package domain

import (
	"strings"
	"testing"
)

func sampleDataset() *Dataset {
	return Assemble(
		[]Record{
			{Tag: "#golang", Count: 25400, Rank: 1, Region: "World", Period: "Now", Date: "2025-06-15"},
			{Tag: "#monday", Count: 0, Rank: 2, Region: "World", Period: "Now", Date: "2025-06-15"},
		},
		[]Record{
			{Tag: "#cricket", Count: 410000, Rank: 1, Region: "India", Period: "Week", Date: "2025-06-12"},
			{Tag: "#golang", Count: 9000, Rank: 4, Region: "India", Period: "Now", Date: "2025-06-15"},
		},
	)
}

func TestAssembleCoercesAndNormalizes(t *testing.T) {
	ds := Assemble([]Record{
		{Tag: "#a", Count: -5, Rank: -1, Region: "world"},
		{Tag: "#b", Count: 10, Rank: 2, Region: "mars"},
	})

	if ds.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ds.Len())
	}
	if ds.Records[0].Count != 0 || ds.Records[0].Rank != 0 {
		t.Errorf("expected negative count/rank coerced to zero, got %+v", ds.Records[0])
	}
	if ds.Records[0].Region != RegionWorld {
		t.Errorf("expected normalized region World, got %q", ds.Records[0].Region)
	}
	if ds.Records[1].Region != RegionUnknown {
		t.Errorf("expected unrecognized region to become Unknown, got %q", ds.Records[1].Region)
	}
}

func TestAssemblePreservesBatchOrder(t *testing.T) {
	ds := sampleDataset()

	want := []string{"#golang", "#monday", "#cricket", "#golang"}
	for i, tag := range want {
		if ds.Records[i].Tag != tag {
			t.Errorf("position %d: expected %q, got %q", i, tag, ds.Records[i].Tag)
		}
	}
}

func TestTagsDistinctEncounterOrder(t *testing.T) {
	tags := sampleDataset().Tags()

	want := []string{"#golang", "#monday", "#cricket"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d distinct tags, got %d", len(want), len(tags))
	}
	for i, tag := range want {
		if tags[i] != tag {
			t.Errorf("position %d: expected %q, got %q", i, tag, tags[i])
		}
	}
}

func TestApplySentimentBroadcastsPerTag(t *testing.T) {
	ds := sampleDataset()
	ds.ApplySentiment(map[string]string{
		"#golang":  SentimentPositive,
		"#cricket": SentimentNeutral,
	})

	if ds.Records[0].Sentiment != SentimentPositive || ds.Records[3].Sentiment != SentimentPositive {
		t.Errorf("expected label broadcast to every #golang row, got %q and %q",
			ds.Records[0].Sentiment, ds.Records[3].Sentiment)
	}
	if ds.Records[1].Sentiment != "" {
		t.Errorf("expected unlabeled tag to stay unlabeled, got %q", ds.Records[1].Sentiment)
	}
}

func TestFilter(t *testing.T) {
	ds := sampleDataset()
	ds.ApplySentiment(map[string]string{"#golang": SentimentPositive})

	bySearch := ds.Filter(Query{Search: "golang"})
	if bySearch.Len() != 2 {
		t.Errorf("expected 2 records for search, got %d", bySearch.Len())
	}

	byRegion := ds.Filter(Query{Regions: []string{RegionIndia}})
	if byRegion.Len() != 2 {
		t.Errorf("expected 2 India records, got %d", byRegion.Len())
	}

	bySentiment := ds.Filter(Query{Sentiments: []string{SentimentPositive}})
	if bySentiment.Len() != 2 {
		t.Errorf("expected 2 Positive records, got %d", bySentiment.Len())
	}

	byCount := ds.Filter(Query{MinCount: 10000, MaxCount: 100000})
	if byCount.Len() != 1 || byCount.Records[0].Tag != "#golang" {
		t.Errorf("expected only the 25400-count row, got %+v", byCount.Records)
	}

	combined := ds.Filter(Query{Search: "golang", Regions: []string{RegionWorld}, Periods: []string{"Now"}})
	if combined.Len() != 1 {
		t.Errorf("expected 1 record for combined filters, got %d", combined.Len())
	}

	none := ds.Filter(Query{Search: "nomatch"})
	if !none.Empty() {
		t.Errorf("expected empty result, got %d records", none.Len())
	}
}

func TestTopByCountSumsAcrossListings(t *testing.T) {
	ds := sampleDataset()

	top := ds.TopByCount("", 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Tag != "#cricket" || top[0].Count != 410000 {
		t.Errorf("unexpected leader: %+v", top[0])
	}
	if top[1].Tag != "#golang" || top[1].Count != 34400 {
		t.Errorf("expected summed #golang total 34400, got %+v", top[1])
	}

	india := ds.TopByCount(RegionIndia, 10)
	if len(india) != 2 || india[0].Tag != "#cricket" {
		t.Errorf("unexpected India ranking: %+v", india)
	}
}

func TestTopByCountStableTies(t *testing.T) {
	ds := Assemble([]Record{
		{Tag: "#first", Count: 100, Region: "World"},
		{Tag: "#second", Count: 100, Region: "World"},
		{Tag: "#third", Count: 100, Region: "World"},
	})

	top := ds.TopByCount("", 3)
	want := []string{"#first", "#second", "#third"}
	for i, tag := range want {
		if top[i].Tag != tag {
			t.Errorf("tied totals should keep encounter order, position %d got %q", i, top[i].Tag)
		}
	}
}

func TestTopRankedOrdersByListingRank(t *testing.T) {
	ds := Assemble([]Record{
		{Tag: "#third", Rank: 3, Region: "World"},
		{Tag: "#first", Rank: 1, Region: "World"},
		{Tag: "#unranked", Rank: 0, Region: "World"},
		{Tag: "#first", Rank: 7, Region: "World"},
	})

	tags := ds.TopRanked(RegionWorld, 10)
	want := []string{"#first", "#third", "#unranked"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(tags))
	}
	for i, tag := range want {
		if tags[i] != tag {
			t.Errorf("position %d: expected %q, got %q", i, tag, tags[i])
		}
	}
}

func TestTagFrequencies(t *testing.T) {
	ds := sampleDataset()

	freqs := ds.TagFrequencies(0)
	if len(freqs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(freqs))
	}
	if freqs[0].Tag != "#golang" || freqs[0].Count != 2 {
		t.Errorf("expected #golang to appear twice, got %+v", freqs[0])
	}

	limited := ds.TagFrequencies(1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d entries", len(limited))
	}
}

func TestWriteCSV(t *testing.T) {
	ds := sampleDataset()
	ds.ApplySentiment(map[string]string{"#golang": SentimentPositive})

	var b strings.Builder
	if err := ds.WriteCSV(&b); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if lines[0] != "tag,sentiment,count,region,date,period,rank" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "#golang,Positive,25400,World,2025-06-15,Now,1" {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}

func TestEmptyDataset(t *testing.T) {
	var nilDataset *Dataset
	if !nilDataset.Empty() {
		t.Error("nil dataset should be empty")
	}
	if nilDataset.Len() != 0 {
		t.Error("nil dataset should have zero length")
	}

	if !Assemble().Empty() {
		t.Error("dataset with no batches should be empty")
	}
}
