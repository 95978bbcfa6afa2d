package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vijay-prabhu/researchdesk/internal/research"
)

var csvHeader = []string{
	"category", "priority", "final_score", "title", "url", "published_date", "author",
	"relevance", "quality", "freshness", "search_score", "reasoning", "summary",
}

// CSVTo writes both buckets of a result as CSV, expand-worthy rows first
func CSVTo(w io.Writer, data interface{}) error {
	r, ok := data.(*research.Result)
	if !ok {
		return fmt.Errorf("unsupported data type for csv output: %T", data)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, rec := range r.All() {
		if err := cw.Write(csvRow(rec)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(r research.CategorizedRecord) []string {
	return []string{
		string(r.Category),
		strconv.Itoa(r.Priority),
		strconv.FormatFloat(r.FinalScore, 'f', 2, 64),
		r.Title,
		r.URL,
		r.PublishedDate,
		r.Author,
		formatNumber(r.Breakdown.Relevance),
		formatNumber(r.Breakdown.Quality),
		formatNumber(r.Breakdown.Freshness),
		formatNumber(r.Breakdown.ExternalScore),
		r.Reasoning,
		r.Summary,
	}
}
