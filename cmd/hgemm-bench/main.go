// hgemm-bench runs the kernel family over a problem size, verifies every
// result against the single-precision reference, and records a JSON session
// that hgemm-compare can diff against earlier runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/LynnColeArt/hgemm"
)

func main() {
	var (
		m       = flag.Int("m", 1024, "rows of A and C")
		n       = flag.Int("n", 1024, "columns of B and C")
		k       = flag.Int("k", 1024, "columns of A / rows of B")
		kernels = flag.String("kernels", "all", "comma-separated kernel names, or 'all'")
		reps    = flag.Int("reps", 3, "timed repetitions per kernel (best is reported)")
		verify  = flag.Bool("verify", true, "verify results against the reference")
		blas    = flag.Bool("blas", false, "also time the vendor BLAS baseline")
		session = flag.String("session", "bench", "session name for the JSON log")
		seed    = flag.Int64("seed", 42, "seed for operand data")
	)
	flag.Parse()

	names := hgemm.ConfigNames()
	if *kernels != "all" {
		names = strings.Split(*kernels, ",")
	}

	if err := hgemm.InitResultLogger(*session); err != nil {
		log.Fatalf("Failed to initialize result logger: %v", err)
	}

	dev := hgemm.DeviceProperties()
	fmt.Printf("Device: %s (%d cores, wave width %d)\n", dev.Name, dev.NumCores, dev.WaveWidth)
	fmt.Printf("Problem: C[%d×%d] = A[%d×%d] × B[%d×%d]\n\n", *m, *n, *m, *k, *k, *n)

	rng := rand.New(rand.NewSource(*seed))
	A, err := hgemm.NewMatrix(*m, *k, hgemm.ColMajor)
	if err != nil {
		log.Fatalf("Failed to allocate A: %v", err)
	}
	B, err := hgemm.NewMatrix(*k, *n, hgemm.RowMajor)
	if err != nil {
		log.Fatalf("Failed to allocate B: %v", err)
	}
	A.FillRandom(rng)
	B.FillRandom(rng)

	var want *hgemm.Matrix
	if *verify {
		want, err = hgemm.NewMatrix(*m, *n, hgemm.RowMajor)
		if err != nil {
			log.Fatalf("Failed to allocate reference: %v", err)
		}
		if err := (hgemm.Reference{}).Hgemm(want, A, B); err != nil {
			log.Fatalf("Reference failed: %v", err)
		}
	}

	flops := 2 * float64(*m) * float64(*n) * float64(*k)
	anyFailed := false

	for _, name := range names {
		C, err := hgemm.NewMatrix(*m, *n, hgemm.RowMajor)
		if err != nil {
			log.Fatalf("Failed to allocate C: %v", err)
		}

		best := time.Duration(0)
		var runErr error
		for r := 0; r < *reps; r++ {
			start := time.Now()
			runErr = hgemm.Hgemm(name, C, A, B)
			elapsed := time.Since(start)
			if runErr != nil {
				break
			}
			if best == 0 || elapsed < best {
				best = elapsed
			}
		}
		if runErr != nil {
			anyFailed = true
			fmt.Printf("✗ %-16s ERROR: %v\n", name, runErr)
			hgemm.LogRunError(name, *m, *n, *k, runErr)
			continue
		}

		gflops := flops / best.Seconds() / 1e9
		if !*verify {
			fmt.Printf("✓ %-16s %10.2f GFLOPS  (%v)\n", name, gflops, best)
			hgemm.LogRunResult(hgemm.RunResult{
				Kernel: name, M: *m, N: *n, K: *k,
				Status: "pass", Duration: best, GFLOPS: gflops,
			})
			continue
		}

		rep, err := hgemm.Verify(C, want, *k)
		if err != nil {
			log.Fatalf("Verify failed: %v", err)
		}
		if rep.Pass() {
			fmt.Printf("✓ %-16s %10.2f GFLOPS  (%v)  %v\n", name, gflops, best, rep)
			hgemm.LogRunPass(name, *m, *n, *k, best, gflops, rep)
		} else {
			// Batch runs keep going so every kernel reports independently.
			anyFailed = true
			fmt.Printf("✗ %-16s %10.2f GFLOPS  (%v)\n%v\n", name, gflops, best, rep)
			hgemm.LogRunFail(name, *m, *n, *k, rep)
		}
	}

	if *blas {
		start := time.Now()
		C, err := hgemm.BlasHgemm(A, B)
		elapsed := time.Since(start)
		if err != nil {
			log.Fatalf("BLAS baseline failed: %v", err)
		}
		gflops := flops / elapsed.Seconds() / 1e9
		fmt.Printf("• %-16s %10.2f GFLOPS  (%v)\n", "blas32", gflops, elapsed)
		if *verify {
			rep, err := hgemm.Verify(C, want, *k)
			if err != nil {
				log.Fatalf("Verify failed: %v", err)
			}
			fmt.Printf("  %v\n", rep)
		}
	}

	if err := hgemm.PrintRunSummary(); err != nil {
		log.Printf("Failed to print summary: %v", err)
	}
	if anyFailed {
		os.Exit(1)
	}
}
