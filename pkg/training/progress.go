package training

import (
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
)

// progressBar wraps an mpb bar so stages can report progress whether or not
// bars are shown. A nil bar is a no-op.
type progressBar struct {
	progress  *mpb.Progress
	bar       *mpb.Bar
	remaining int
}

func (p *Pipeline) startProgress(name string, total int) *progressBar {
	if !p.progress {
		return nil
	}
	progress := mpb.New(mpb.WithWidth(20), mpb.WithOutput(p.out))
	bar := progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("\t[-] "+name, decor.WC{W: 30, C: decor.DidentRight}),
			decor.CountersNoUnit(" %d / %d ", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return &progressBar{progress: progress, bar: bar, remaining: total}
}

func (b *progressBar) step() {
	if b == nil {
		return
	}
	b.remaining--
	b.bar.IncrBy(1)
}

// done completes the bar, even when a stage stopped early, and waits for the
// final render
func (b *progressBar) done() {
	if b == nil {
		return
	}
	if b.remaining > 0 {
		b.bar.IncrBy(b.remaining)
		b.remaining = 0
	}
	b.progress.Wait()
}
