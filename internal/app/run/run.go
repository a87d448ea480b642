package run

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/John-Robertt/AnnoRes/internal/config"
	"github.com/John-Robertt/AnnoRes/internal/domain"
	"github.com/John-Robertt/AnnoRes/internal/infra/fsx"
	"github.com/John-Robertt/AnnoRes/internal/patch"
)

// Execute 执行一次补丁，并返回对外稳定的 RunReport。
func Execute(eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
//
// 流程严格顺序执行：读取两个输入 -> 扫描/补丁 DLL -> 补丁文本 -> 写出全部产物。
// 所有补丁在写盘前完成，因此 no_match_found 等致命错误不会留下任何产物。
// 输入文件只读，不会被修改。
func ExecuteWithObserver(eff config.EffectiveConfig, obs Observer) domain.RunReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	rr := domain.RunReport{
		Path:      eff.Path,
		Old:       eff.Old.String(),
		Target:    eff.Target.String(),
		StartedAt: time.Now().UTC(),
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	fail := func(code, file, msg string) domain.RunReport {
		rr.ErrorCode = code
		rr.File = file
		rr.ErrorMsg = msg
		return finish()
	}

	readStarted := time.Now()
	dll, err := fsx.ReadInput(eff.Path, domain.BinaryName)
	if err != nil {
		return fail(readErrorCode(err), domain.BinaryName, fmt.Sprintf("读取 %s 失败：%v", domain.BinaryName, err))
	}
	text, err := fsx.ReadInput(eff.Path, domain.TextName)
	if err != nil {
		return fail(readErrorCode(err), domain.TextName, fmt.Sprintf("读取 %s 失败：%v", domain.TextName, err))
	}
	obs.OnPhaseDone("read", map[string]any{
		"dll_bytes":  len(dll),
		"text_bytes": len(text),
	}, time.Since(readStarted))

	scanStarted := time.Now()
	cands, err := patch.PatchBinary(dll, eff.Old, eff.Target)
	if err != nil {
		if errors.Is(err, patch.ErrNoMatchFound) {
			return fail(domain.ErrCodeNoMatchFound, domain.BinaryName,
				fmt.Sprintf("%s 中未找到 %s 的字节模式，未生成任何候选文件（游戏版本可能不兼容）", domain.BinaryName, eff.Old))
		}
		return fail(domain.ErrCodeIOFailed, domain.BinaryName, err.Error())
	}
	obs.OnPhaseDone("scan", map[string]any{
		"matches": len(cands),
	}, time.Since(scanStarted))

	textStarted := time.Now()
	patchedText, replaced, err := patch.PatchTextFile(text, eff.Old, eff.Target)
	if err != nil {
		if !errors.Is(err, patch.ErrLabelNotFound) {
			return fail(domain.ErrCodeIOFailed, domain.TextName, fmt.Sprintf("处理 %s 失败：%v", domain.TextName, err))
		}
		w := domain.Warning{
			Code: domain.ErrCodeLabelNotFound,
			File: domain.TextName,
			Msg:  fmt.Sprintf("%s 中没有独占一行的 %q，%s 仅做了行尾规范化", domain.TextName, eff.Old.String(), domain.PatchedTextName),
		}
		rr.Warnings = append(rr.Warnings, w)
		obs.OnWarning(w.Code, w.File, w.Msg)
	}
	obs.OnPhaseDone("text", map[string]any{
		"replaced": replaced,
	}, time.Since(textStarted))

	total := len(cands) + 1
	for i, c := range cands {
		idx := i + 1
		name := domain.PatchedBinaryName(idx)
		if err := fsx.WriteFileAtomic(eff.Path, name, c.Data); err != nil {
			return fail(domain.ErrCodeIOFailed, name, fmt.Sprintf("写入 %s 失败：%v", name, err))
		}
		rr.Candidates = append(rr.Candidates, domain.CandidateResult{
			Index:  idx,
			File:   name,
			Offset: c.Match.Offset,
			Middle: hex.EncodeToString(c.Match.Middle[:]),
		})
		obs.OnOutputWritten(idx, total, name, len(c.Data))
	}

	if err := fsx.WriteFileAtomic(eff.Path, domain.PatchedTextName, patchedText); err != nil {
		return fail(domain.ErrCodeIOFailed, domain.PatchedTextName, fmt.Sprintf("写入 %s 失败：%v", domain.PatchedTextName, err))
	}
	rr.Text = &domain.TextResult{File: domain.PatchedTextName, Replaced: replaced}
	obs.OnOutputWritten(total, total, domain.PatchedTextName, len(patchedText))

	return finish()
}

func readErrorCode(err error) string {
	if fsx.IsMissingFile(err) {
		return domain.ErrCodeFileNotFound
	}
	return domain.ErrCodeIOFailed
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig) {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnOutputWritten(int, int, string, int) {}
func (nopObserver) OnWarning(string, string, string) {}
