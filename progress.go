package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"consolidate/models"
)

// progress renders a bar of finished commands. The bar is created on the
// first update, when the total is known. A nil *progress is a no-op.
type progress struct {
	w      io.Writer
	bar    *progressbar.ProgressBar
	failed int
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

// update matches orchestrator.ProgressCallback.
func (p *progress) update(completed, total int, outcome *models.CommandOutcome) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Restoring"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	if outcome != nil && !outcome.Succeeded {
		p.failed++
		p.bar.Describe(fmt.Sprintf("Restoring (%d failed)", p.failed))
	}
	_ = p.bar.Set(completed)
}

func (p *progress) finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
