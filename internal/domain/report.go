package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeInvalidResolution = "invalid_resolution"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeFileNotFound      = "file_not_found"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeNoMatchFound      = "no_match_found"
	ErrCodeLabelNotFound     = "label_not_found"
)

// 游戏目录中的固定文件名。
const (
	BinaryName = "AnnoFrame.dll"
	TextName   = "Texte.dat"

	PatchedTextName = "Texte_patched.dat"
)

// PatchedBinaryName 返回第 n 个候选 DLL 的文件名（n 从 1 开始，按扫描顺序）。
func PatchedBinaryName(n int) string {
	return "AnnoFrame_patched_" + strconv.Itoa(n) + ".dll"
}

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	Path   string `json:"path"`
	Old    string `json:"old"`
	Target string `json:"target"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	// File 是出错时涉及的文件（相对游戏目录）；无则为空。
	File string `json:"file"`

	Candidates []CandidateResult `json:"candidates"`
	Text       *TextResult       `json:"text"`
	Warnings   []Warning         `json:"warnings"`
}

// CandidateResult 描述一个已写出的候选 DLL。
type CandidateResult struct {
	Index  int    `json:"index"`
	File   string `json:"file"`
	Offset int    `json:"offset"`
	// Middle 是宽高之间被原样保留的 4 个字节（十六进制）。
	Middle string `json:"middle"`
}

type TextResult struct {
	File     string `json:"file"`
	Replaced int    `json:"replaced"`
}

type Warning struct {
	Code string `json:"code"`
	File string `json:"file"`
	Msg  string `json:"msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) candidates 按 index 稳定排序，nil 切片换成空切片（JSON 输出 [] 而不是 null）
// 3) status 由 error_code 推导
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Candidates == nil {
		r.Candidates = []CandidateResult{}
	}
	if r.Warnings == nil {
		r.Warnings = []Warning{}
	}
	sort.SliceStable(r.Candidates, func(i, j int) bool {
		return r.Candidates[i].Index < r.Candidates[j].Index
	})

	if r.ErrorCode != "" {
		r.Status = StatusFailed
	} else {
		r.Status = StatusOK
	}
}

// OK 表示本次运行没有致命错误（warning 不影响）。
func (r RunReport) OK() bool {
	return r.ErrorCode == ""
}

func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
