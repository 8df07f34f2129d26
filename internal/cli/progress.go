package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/idelchi/cachestat/internal/cachestat"
)

// progress draws one bar per cache root on a terminal.
type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

// hook returns a progress callback for the named category.
func (p *progress) hook(category string) cachestat.ProgressFunc {
	return func(done, total int, bytes uint64) {
		// progressbar rejects a zero maximum; an empty root has nothing to show.
		if total <= 0 {
			return
		}

		if p.bar == nil {
			p.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
			)
		}

		p.bar.Describe(fmt.Sprintf("Measuring %s… %s", category, humanize.Bytes(bytes)))
		_ = p.bar.Set(done)
	}
}

// done finishes the current bar and clears the status line.
func (p *progress) done() {
	if p.bar == nil {
		return
	}

	_ = p.bar.Finish()
	p.bar = nil

	fmt.Fprint(p.w, "\r\033[2K\r")
}
