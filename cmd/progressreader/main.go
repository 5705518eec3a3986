package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

func main() {
	var source string
	var subject string
	var issues bool
	var timeout time.Duration
	flag.StringVar(&source, "source", "weekly_practice.csv", "Data source: path, http(s)://, s3://bucket/key or postgres://")
	flag.StringVar(&subject, "subject", "", "Optional subject filter (exact match)")
	flag.BoolVar(&issues, "issues", false, "Also list integrity issues")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Load timeout")
	flag.Parse()

	loader, err := progress.NewLoader(progress.SourceConfig{URI: source, Timeout: timeout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	recs, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sums := analysis.SummarizeAll(recs)
	fmt.Printf("Total subjects: %d (%d rows)\n", len(sums), len(recs))
	for _, s := range sums {
		if subject != "" && s.SubjectID != subject {
			continue
		}
		span := "no active weeks"
		if s.FirstWeek != nil && s.LastWeek != nil {
			span = s.FirstWeek.Format("2006-01-02") + " .. " + s.LastWeek.Format("2006-01-02")
		}
		fmt.Printf("%s: weeks=%d active=%d %s headline=%s issues=%d\n",
			s.SubjectID, s.Weeks, s.ActiveWeeks, span, s.Headline, s.Issues)
	}
	if !issues {
		return
	}
	for _, is := range analysis.CheckAll(recs) {
		if subject != "" && is.SubjectID != subject {
			continue
		}
		fmt.Println(is.String())
	}
}
