package utils

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

const descLength = 20

// Progress is a single mpb bar drawn on stderr. It is a no-op when disabled or
// when stderr is not a terminal.
type Progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	description atomic.Value
	last        time.Time
}

// NewProgress creates a progress bar counting up to total
func NewProgress(total int, enabled bool) *Progress {
	p := &Progress{}
	p.description.Store("")

	if !enabled || total <= 0 || !isTerminal() {
		return p
	}

	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return truncate(p.description.Load().(string), descLength)
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name("  "),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
		),
	)
	p.last = time.Now()

	return p
}

// Enabled reports whether the bar is drawn
func (p *Progress) Enabled() bool {
	return p.bar != nil
}

// Update sets the current count and description
func (p *Progress) Update(current int, description string) {
	if p.bar == nil {
		return
	}

	now := time.Now()
	p.description.Store(description)
	p.bar.EwmaSetCurrent(int64(current), now.Sub(p.last))
	p.last = now
}

// Finish waits for the bar to complete. An incomplete bar is aborted in place so
// an interrupted run leaves its last position visible.
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}

	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()

	fmt.Fprintln(os.Stderr)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
