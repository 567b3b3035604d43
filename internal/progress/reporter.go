package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during batch flow runs. Implementations
// are safe for concurrent use.
type Reporter interface {
	Start(total int)
	// Done marks one item finished. failed items are counted separately.
	Done(message string, failed bool)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	failed int
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Running flows"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Done(message string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failed {
		r.failed++
	}
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	if r.failed > 0 {
		fmt.Fprintf(os.Stderr, "%d item(s) failed\n", r.failed)
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	w       io.Writer
	mu      sync.Mutex
	total   int
	current int
	failed  int
}

// NewCIReporter returns a CIReporter writing to w.
func NewCIReporter(w io.Writer) *CIReporter {
	return &CIReporter{w: w}
}

func (r *CIReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.w, "Running %d flow inputs\n", total)
}

func (r *CIReporter) Done(message string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	status := "ok"
	if failed {
		r.failed++
		status = "FAILED"
	}
	fmt.Fprintf(r.w, "[%d/%d] %s %s\n", r.current, r.total, status, message)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.w, "Batch complete: %d ok, %d failed\n", r.current-r.failed, r.failed)
}
