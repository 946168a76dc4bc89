// Package lighthouse runs the Lighthouse CLI against a target URL and turns
// its JSON report into category scores.
package lighthouse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// Well-known Chrome/Chromium locations, checked when CHROME_PATH is unset.
var chromeCandidates = []string{
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// Lighthouse prefixes progress lines on stderr with "LH:status".
var statusRe = regexp.MustCompile(`LH:status\s+(.+)`)

// Engine implements domain.AuditEngine by shelling out to the lighthouse CLI.
type Engine struct {
	lighthousePath string
	chromePath     string
	timeout        time.Duration
}

// New creates an Engine. lighthousePath is the CLI binary ("lighthouse" if on
// PATH), chromePath may be empty to probe well-known locations, and timeout
// bounds each run.
func New(lighthousePath, chromePath string, timeout time.Duration) *Engine {
	return &Engine{
		lighthousePath: lighthousePath,
		chromePath:     chromePath,
		timeout:        timeout,
	}
}

// Execute runs one audit. Status lines from the child's stderr are forwarded
// to onStatus as they arrive. The child process is killed when ctx is
// cancelled or the timeout elapses, so the browser is released on every exit
// path, including client disconnects.
func (e *Engine) Execute(ctx context.Context, url string, onStatus domain.StatusFunc) (*domain.AuditResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		url,
		"--output=json",
		"--output-path=stdout",
		"--quiet=false",
		"--chrome-flags=--headless --no-sandbox --disable-setuid-sandbox --disable-dev-shm-usage --disable-gpu",
	}

	cmd := exec.CommandContext(ctx, e.lighthousePath, args...)
	cmd.Env = os.Environ()
	if path := e.resolveChromePath(); path != "" {
		cmd.Env = append(cmd.Env, "CHROME_PATH="+path)
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", domain.ErrEngineFailure, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start lighthouse: %v", domain.ErrEngineFailure, err)
	}

	// Drain stderr on the spot; Wait closes the pipe, so this must finish
	// before Wait returns.
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if msg, ok := ParseStatusLine(scanner.Text()); ok && onStatus != nil {
			onStatus(msg)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEngineFailure, ctx.Err())
		}
		return nil, fmt.Errorf("%w: lighthouse exited: %v", domain.ErrEngineFailure, err)
	}

	result, err := ParseReport(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEngineFailure, err)
	}
	return result, nil
}

func (e *Engine) resolveChromePath() string {
	if e.chromePath != "" {
		return e.chromePath
	}
	for _, candidate := range chromeCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ParseStatusLine extracts the human-readable message from an "LH:status"
// progress line. Returns false for lines that are not status lines.
func ParseStatusLine(line string) (string, bool) {
	m := statusRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

type report struct {
	Categories struct {
		Performance   *category `json:"performance"`
		SEO           *category `json:"seo"`
		BestPractices *category `json:"best-practices"`
		Accessibility *category `json:"accessibility"`
	} `json:"categories"`
}

type category struct {
	Score *float64 `json:"score"`
}

// ParseReport converts a raw Lighthouse JSON report into category scores.
// Missing or null category scores become 0, matching Lighthouse's own
// treatment of unscorable categories.
func ParseReport(raw []byte) (*domain.AuditResult, error) {
	var rep report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return &domain.AuditResult{
		Scores: domain.AuditScores{
			Performance:   toPercent(rep.Categories.Performance),
			SEO:           toPercent(rep.Categories.SEO),
			BestPractices: toPercent(rep.Categories.BestPractices),
			Accessibility: toPercent(rep.Categories.Accessibility),
		},
		Raw: json.RawMessage(raw),
	}, nil
}

func toPercent(c *category) int {
	if c == nil || c.Score == nil {
		return 0
	}
	return int(math.Round(*c.Score * 100))
}
