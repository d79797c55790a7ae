package domain

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
)

// CSVColumns is the fixed export column order.
var CSVColumns = []string{"tag", "sentiment", "count", "region", "date", "period", "rank"}

// Dataset is the assembled table of trend records for one render pass.
// Records keep their encounter order; repeated scrapes of the same listing
// may produce near-duplicate rows and that is fine.
type Dataset struct {
	Records []Record `json:"records"`
}

// Assemble concatenates record batches in encounter order, coercing counts
// and ranks to non-negative values and normalizing regions.
func Assemble(batches ...[]Record) *Dataset {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}

	records := make([]Record, 0, total)
	for _, batch := range batches {
		for _, rec := range batch {
			if rec.Count < 0 {
				rec.Count = 0
			}
			if rec.Rank < 0 {
				rec.Rank = 0
			}
			rec.Region = NormalizeRegion(rec.Region)
			records = append(records, rec)
		}
	}

	return &Dataset{Records: records}
}

func (d *Dataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Tags returns the distinct tags in encounter order. This is the unit of
// sentiment classification: one call per distinct tag, never per row.
func (d *Dataset) Tags() []string {
	seen := make(map[string]struct{}, len(d.Records))
	tags := make([]string, 0, len(d.Records))
	for _, rec := range d.Records {
		if _, ok := seen[rec.Tag]; ok {
			continue
		}
		seen[rec.Tag] = struct{}{}
		tags = append(tags, rec.Tag)
	}
	return tags
}

// ApplySentiment broadcasts per-tag labels onto every record sharing the tag.
// Tags missing from the mapping are left unlabeled.
func (d *Dataset) ApplySentiment(labels map[string]string) {
	for i := range d.Records {
		if label, ok := labels[d.Records[i].Tag]; ok {
			d.Records[i].Sentiment = label
		}
	}
}

// Query mirrors the dashboard filter controls.
type Query struct {
	Search     string
	Sentiments []string
	Regions    []string
	Periods    []string
	MinCount   int
	MaxCount   int // 0 means unbounded
}

// Filter returns a new dataset containing the records matching the query,
// preserving order.
func (d *Dataset) Filter(q Query) *Dataset {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]Record, 0, len(d.Records))
	for _, rec := range d.Records {
		if search != "" && !strings.Contains(rec.Tag, search) {
			continue
		}
		if len(q.Sentiments) > 0 && !containsString(q.Sentiments, rec.Sentiment) {
			continue
		}
		if len(q.Regions) > 0 && !containsString(q.Regions, rec.Region) {
			continue
		}
		if len(q.Periods) > 0 && !containsString(q.Periods, rec.Period) {
			continue
		}
		if rec.Count < q.MinCount {
			continue
		}
		if q.MaxCount > 0 && rec.Count > q.MaxCount {
			continue
		}
		matched = append(matched, rec)
	}

	return &Dataset{Records: matched}
}

// TagTotal is an aggregated per-tag tweet count.
type TagTotal struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopByCount groups records by tag, sums counts and returns the top n in
// descending order. Region may be empty to aggregate across all regions.
// The sort is stable so equal totals keep their encounter order.
func (d *Dataset) TopByCount(region string, n int) []TagTotal {
	totals := make(map[string]int)
	order := make([]string, 0)

	for _, rec := range d.Records {
		if region != "" && rec.Region != region {
			continue
		}
		if _, ok := totals[rec.Tag]; !ok {
			order = append(order, rec.Tag)
		}
		totals[rec.Tag] += rec.Count
	}

	ranked := make([]TagTotal, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, TagTotal{Tag: tag, Count: totals[tag]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopRanked returns the first n distinct tags in a region ordered by their
// listing rank (unranked rows sort last). Used for the digest email.
func (d *Dataset) TopRanked(region string, n int) []string {
	type ranked struct {
		tag  string
		rank int
	}

	best := make(map[string]int)
	order := make([]string, 0)
	for _, rec := range d.Records {
		if region != "" && rec.Region != region {
			continue
		}
		rank := rec.Rank
		if rank == 0 {
			rank = int(^uint(0) >> 1)
		}
		if current, ok := best[rec.Tag]; !ok {
			best[rec.Tag] = rank
			order = append(order, rec.Tag)
		} else if rank < current {
			best[rec.Tag] = rank
		}
	}

	entries := make([]ranked, 0, len(order))
	for _, tag := range order {
		entries = append(entries, ranked{tag: tag, rank: best[tag]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rank < entries[j].rank
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}

	tags := make([]string, len(entries))
	for i, e := range entries {
		tags[i] = e.tag
	}
	return tags
}

// TagFrequencies counts how many listings each tag appeared in, for the
// word-cloud view. Returns the top limit entries, appearance-count first.
func (d *Dataset) TagFrequencies(limit int) []TagTotal {
	freqs := make(map[string]int)
	order := make([]string, 0)
	for _, rec := range d.Records {
		if _, ok := freqs[rec.Tag]; !ok {
			order = append(order, rec.Tag)
		}
		freqs[rec.Tag]++
	}

	ranked := make([]TagTotal, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, TagTotal{Tag: tag, Count: freqs[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// WriteCSV writes the dataset with the fixed dashboard column set.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}

	for _, rec := range d.Records {
		row := []string{
			rec.Tag,
			rec.Sentiment,
			strconv.Itoa(rec.Count),
			rec.Region,
			rec.Date,
			rec.Period,
			strconv.Itoa(rec.Rank),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
