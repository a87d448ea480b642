package run

import (
	"time"

	"github.com/John-Robertt/AnnoRes/internal/config"
)

// Observer 用于把“运行进度/阶段/产物”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// 事件按顺序同步发出，实现无需并发安全。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用：read / scan / text。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnOutputWritten 在每个输出文件写完后调用；idx 从 1 开始，total 为本次将写出的文件总数。
	OnOutputWritten(idx, total int, name string, size int)
	// OnWarning 报告非致命问题（例如 label_not_found）。
	OnWarning(code, file, msg string)
}
