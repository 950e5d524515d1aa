// hgemm-compare diffs two JSON sessions written by hgemm-bench and reports
// per-kernel throughput deltas, flagging regressions beyond a threshold.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/LynnColeArt/hgemm"
)

func key(r hgemm.RunResult) string {
	return fmt.Sprintf("%s %dx%dx%d", r.Kernel, r.M, r.N, r.K)
}

func main() {
	threshold := flag.Float64("threshold", 5.0, "regression threshold in percent")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [-threshold pct] <baseline.json> <candidate.json>\n", os.Args[0])
		os.Exit(2)
	}

	baseline, err := hgemm.ReadResults(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read baseline: %v", err)
	}
	candidate, err := hgemm.ReadResults(flag.Arg(1))
	if err != nil {
		log.Fatalf("Failed to read candidate: %v", err)
	}

	base := make(map[string]hgemm.RunResult, len(baseline))
	for _, r := range baseline {
		base[key(r)] = r
	}

	keys := make([]string, 0, len(candidate))
	cand := make(map[string]hgemm.RunResult, len(candidate))
	for _, r := range candidate {
		k := key(r)
		keys = append(keys, k)
		cand[k] = r
	}
	sort.Strings(keys)

	fmt.Printf("%-36s %12s %12s %9s\n", "run", "baseline", "candidate", "delta")
	regressions := 0
	for _, k := range keys {
		c := cand[k]
		b, ok := base[k]
		if !ok {
			fmt.Printf("%-36s %12s %9.2f GFLOPS      new\n", k, "-", c.GFLOPS)
			continue
		}
		if c.Status != "pass" || b.Status != "pass" {
			fmt.Printf("%-36s %12s %12s   status %s -> %s\n", k, "-", "-", b.Status, c.Status)
			if c.Status != "pass" && b.Status == "pass" {
				regressions++
			}
			continue
		}
		delta := (c.GFLOPS - b.GFLOPS) / b.GFLOPS * 100
		mark := " "
		if delta < -*threshold {
			mark = "✗"
			regressions++
		} else if delta > *threshold {
			mark = "✓"
		}
		fmt.Printf("%-36s %9.2f GF %9.2f GF %+8.1f%% %s\n", k, b.GFLOPS, c.GFLOPS, delta, mark)
	}

	for k := range base {
		if _, ok := cand[k]; !ok {
			fmt.Printf("%-36s removed from candidate session\n", k)
		}
	}

	if regressions > 0 {
		fmt.Printf("\n%d regression(s) beyond %.1f%%\n", regressions, *threshold)
		os.Exit(1)
	}
	fmt.Println("\nNo regressions.")
}
