// Package report renders evaluation reports for people and for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cmcl/internal/domain"
)

// WriteText prints a report in the layout researchers compare against
// published tables:
//
//	number of img views:  1
//	Image2Image---------------------------
//	85.23
func WriteText(w io.Writer, r *domain.Report) error {
	if _, err := fmt.Fprintf(w, "number of img views:  %d\n", r.Views); err != nil {
		return err
	}
	for _, res := range r.Results {
		if _, err := fmt.Fprintf(w, "%s---------------------------\n%s\n", res.Pair.Name(), FormatPercent(res.Percent)); err != nil {
			return err
		}
	}
	return nil
}

// FormatPercent prints v with the shortest exact representation and always
// at least one decimal ("100.0", "85.23").
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

type jsonPair struct {
	Pair       string  `json:"pair"`
	Query      string  `json:"query"`
	Gallery    string  `json:"gallery"`
	MAP        float64 `json:"map"`
	Percent    float64 `json:"percent"`
	Queries    int     `json:"queries"`
	NoRelevant int     `json:"no_relevant"`
}

type jsonReport struct {
	Dir     string     `json:"dir"`
	Views   int        `json:"views"`
	Samples int        `json:"samples"`
	Results []jsonPair `json:"results"`
}

// WriteJSON encodes the reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*domain.Report) error {
	out := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		jr := jsonReport{Dir: r.Dir, Views: r.Views, Samples: r.Samples, Results: make([]jsonPair, 0, len(r.Results))}
		for _, res := range r.Results {
			jr.Results = append(jr.Results, jsonPair{
				Pair:       res.Pair.Name(),
				Query:      string(res.Pair.Query),
				Gallery:    string(res.Pair.Gallery),
				MAP:        res.MAP,
				Percent:    res.Percent,
				Queries:    res.Queries,
				NoRelevant: res.NoRelevant,
			})
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
