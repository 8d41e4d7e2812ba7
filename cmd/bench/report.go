// README: Bench outcomes, ranking shape checks and latency summaries.
package main

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"text/tabwriter"
	"time"

	"campusride/internal/modules/matching"
	"campusride/internal/types"
)

type outcome string

const (
	outcomePass outcome = "PASS"
	outcomeFail outcome = "FAIL"
	outcomeSkip outcome = "SKIP"
)

type report struct {
	name    string
	outcome outcome
	latency time.Duration
	note    string
}

func pass(note string) report { return report{outcome: outcomePass, note: note} }
func fail(note string) report { return report{outcome: outcomeFail, note: note} }
func skip(note string) report { return report{outcome: outcomeSkip, note: note} }

func failAfter(res call, note string) report {
	return report{outcome: outcomeFail, latency: res.latency, note: note}
}

// expectStatus grades one HTTP call against the status it should have returned.
func expectStatus(res call, err error) func(want int) report {
	return func(want int) report {
		if err != nil {
			return report{outcome: outcomeFail, latency: res.latency, note: err.Error()}
		}
		if res.status != want {
			return failAfter(res, fmt.Sprintf("status=%d want %d", res.status, want))
		}
		return report{outcome: outcomePass, latency: res.latency, note: fmt.Sprintf("status=%d", res.status)}
	}
}

func tally(reports []report) map[outcome]int {
	counts := make(map[outcome]int, 3)
	for _, r := range reports {
		counts[r.outcome]++
	}
	return counts
}

func printReports(w io.Writer, reports []report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range reports {
		latency := "-"
		if r.latency > 0 {
			latency = r.latency.Round(time.Microsecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.outcome, r.name, latency, r.note)
	}
	_ = tw.Flush()
	c := tally(reports)
	fmt.Fprintf(w, "\nPASS=%d FAIL=%d SKIP=%d\n", c[outcomePass], c[outcomeFail], c[outcomeSkip])
}

var gidPattern = regexp.MustCompile(`^G\d{3,}$`)

func validGID(id types.ID) bool {
	return gidPattern.MatchString(string(id))
}

// verifyRanking checks the shape every /find_groups response must have.
func verifyRanking(results []matching.Result, topK int) error {
	if len(results) > topK {
		return fmt.Errorf("%d results exceed top_k=%d", len(results), topK)
	}
	seen := make(map[types.ID]struct{}, len(results))
	var errs []error
	for i, r := range results {
		if _, dup := seen[r.GroupID]; dup {
			errs = append(errs, fmt.Errorf("%s listed twice", r.GroupID))
		}
		seen[r.GroupID] = struct{}{}
		if i > 0 && r.Score > results[i-1].Score {
			errs = append(errs, fmt.Errorf("%s (%.2f) ranked below %s (%.2f)", r.GroupID, r.Score, results[i-1].GroupID, results[i-1].Score))
		}
		if want := max(0, r.Capacity-len(r.Members)); r.SeatsLeft != want {
			errs = append(errs, fmt.Errorf("%s seats_left=%d want %d", r.GroupID, r.SeatsLeft, want))
		}
	}
	return errors.Join(errs...)
}

// verifyStrict checks that strict results are joinable and carry a directional segment.
func verifyStrict(results []matching.Result) error {
	var errs []error
	for _, r := range results {
		if r.Capacity > 0 && len(r.Members) >= r.Capacity {
			errs = append(errs, fmt.Errorf("%s is full", r.GroupID))
		}
		if r.SegmentLength < 2 {
			errs = append(errs, fmt.Errorf("%s segment_length=%d", r.GroupID, r.SegmentLength))
		}
	}
	return errors.Join(errs...)
}

func rankOf(results []matching.Result, gid types.ID) int {
	if gid.Empty() {
		return -1
	}
	for i, r := range results {
		if r.GroupID == gid {
			return i
		}
	}
	return -1
}

type loadSummary struct {
	rps      float64
	p50, p95 time.Duration
}

func summarize(latencies []time.Duration, window time.Duration) loadSummary {
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s := loadSummary{p50: percentile(sorted, 50), p95: percentile(sorted, 95)}
	if window > 0 {
		s.rps = float64(len(sorted)) / window.Seconds()
	}
	return s
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
