package hgemm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RunResult captures one benchmark or verification run of a kernel.
type RunResult struct {
	Kernel     string        `json:"kernel"`
	M          int           `json:"m"`
	N          int           `json:"n"`
	K          int           `json:"k"`
	Status     string        `json:"status"` // "pass", "fail", "error"
	Duration   time.Duration `json:"duration,omitempty"`
	GFLOPS     float64       `json:"gflops,omitempty"`
	MaxRelErr  float32       `json:"max_rel_err,omitempty"`
	FrobRelErr float32       `json:"frob_rel_err,omitempty"`
	SSIM       float32       `json:"ssim,omitempty"`
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ResultLogger appends run results to a per-session JSON file.
type ResultLogger struct {
	mu          sync.Mutex
	results     []RunResult
	logDir      string
	sessionFile string
}

var globalLogger = &ResultLogger{
	logDir: "hgemm_logs",
}

// InitResultLogger starts a new logging session. Results recorded afterwards
// go to a timestamped JSON file under the log directory.
func InitResultLogger(sessionName string) error {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	if err := os.MkdirAll(globalLogger.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	globalLogger.sessionFile = filepath.Join(globalLogger.logDir,
		fmt.Sprintf("%s_%s.json", sessionName, timestamp))

	globalLogger.results = nil
	return globalLogger.flush()
}

// LogRunResult records one result and flushes immediately so a crash cannot
// lose earlier entries.
func LogRunResult(result RunResult) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	result.Timestamp = time.Now()
	globalLogger.results = append(globalLogger.results, result)
	globalLogger.flush()
}

// LogRunPass records a successful run with its throughput and verification
// statistics.
func LogRunPass(kernel string, m, n, k int, d time.Duration, gflops float64, rep VerifyReport) {
	LogRunResult(RunResult{
		Kernel:     kernel,
		M:          m,
		N:          n,
		K:          k,
		Status:     "pass",
		Duration:   d,
		GFLOPS:     gflops,
		MaxRelErr:  rep.MaxRelErr,
		FrobRelErr: rep.FrobRelErr,
		SSIM:       rep.SSIM,
	})
}

// LogRunFail records a run whose verification failed.
func LogRunFail(kernel string, m, n, k int, rep VerifyReport) {
	LogRunResult(RunResult{
		Kernel:     kernel,
		M:          m,
		N:          n,
		K:          k,
		Status:     "fail",
		MaxRelErr:  rep.MaxRelErr,
		FrobRelErr: rep.FrobRelErr,
		SSIM:       rep.SSIM,
		Error:      rep.String(),
	})
}

// LogRunError records a run that errored before producing a result.
func LogRunError(kernel string, m, n, k int, err error) {
	LogRunResult(RunResult{
		Kernel: kernel,
		M:      m,
		N:      n,
		K:      k,
		Status: "error",
		Error:  err.Error(),
	})
}

func (rl *ResultLogger) flush() error {
	if rl.sessionFile == "" {
		return nil // Not initialized
	}
	data, err := json.MarshalIndent(rl.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(rl.sessionFile, data, 0644)
}

// LatestLogFile returns the path to the most recent session file.
func LatestLogFile() (string, error) {
	files, err := filepath.Glob(filepath.Join(globalLogger.logDir, "*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no log files found")
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}
	return latest, nil
}

// ReadResults loads the run results from a session file.
func ReadResults(path string) ([]RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []RunResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// PrintRunSummary prints a summary of the latest session.
func PrintRunSummary() error {
	logFile, err := LatestLogFile()
	if err != nil {
		return err
	}
	results, err := ReadResults(logFile)
	if err != nil {
		return err
	}

	fmt.Printf("\nRun Summary from %s:\n", filepath.Base(logFile))
	fmt.Println(strings.Repeat("=", 72))

	passed, failed, errored := 0, 0, 0
	for _, r := range results {
		name := fmt.Sprintf("%s %dx%dx%d", r.Kernel, r.M, r.N, r.K)
		switch r.Status {
		case "pass":
			passed++
			fmt.Printf("✓ %-36s %9.2f GFLOPS  frob %.2e  ssim %.4f\n",
				name, r.GFLOPS, r.FrobRelErr, r.SSIM)
		case "fail":
			failed++
			fmt.Printf("✗ %-36s VERIFY FAILED: frob %.2e ssim %.4f\n",
				name, r.FrobRelErr, r.SSIM)
		case "error":
			errored++
			fmt.Printf("✗ %-36s ERROR: %s\n", name, r.Error)
		}
	}

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Total: %d | Passed: %d | Failed: %d | Errored: %d\n",
		len(results), passed, failed, errored)
	return nil
}
