package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/AnnoRes/internal/app/run"
	"github.com/John-Robertt/AnnoRes/internal/config"
	"github.com/John-Robertt/AnnoRes/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约；
// 写出产物阶段用进度条展示。
type progressUI struct {
	w io.Writer

	startedAt time.Time
	bar       *progressbar.ProgressBar
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.startedAt = time.Now()

	fmt.Fprintf(p.w, "[%s] annores\n", p.startedAt.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  old: %s\n", eff.Old)
	fmt.Fprintf(p.w, "  target: %s%s\n", eff.Target, knownGoodNote(eff.Target))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "read":
		fmt.Fprintf(p.w, "读取: %s=%s %s=%s (%s)\n",
			domain.BinaryName, formatSize(intField(fields, "dll_bytes")),
			domain.TextName, formatSize(intField(fields, "text_bytes")),
			formatShortDuration(dur),
		)
	case "scan":
		fmt.Fprintf(p.w, "扫描: matches=%d (%s)\n", intField(fields, "matches"), formatShortDuration(dur))
	case "text":
		fmt.Fprintf(p.w, "文本: replaced=%d (%s)\n", intField(fields, "replaced"), formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnOutputWritten(idx, total int, name string, size int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("写出"),
			progressbar.OptionSetWidth(24),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
		)
	}
	p.bar.Describe("写出 " + name)
	_ = p.bar.Add(1)
	if idx >= total {
		fmt.Fprintf(p.w, "耗时: %s\n\n", formatElapsed(time.Since(p.startedAt)))
	}
}

func (p *progressUI) OnWarning(code, file, msg string) {
	fmt.Fprintf(p.w, "警告 %s %s: %s\n", file, code, msg)
}

func knownGoodNote(r domain.Resolution) string {
	for _, k := range domain.KnownGood {
		if k == r {
			return " (已知可用)"
		}
	}
	return " (未验证)"
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint32:
		return int(x)
	default:
		return 0
	}
}
