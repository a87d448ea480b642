package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/John-Robertt/AnnoRes/internal/app/run"
	"github.com/John-Robertt/AnnoRes/internal/config"
	"github.com/John-Robertt/AnnoRes/internal/domain"
)

func main() {
	if code := runCmd(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printUsage(os.Stdout)
			return 0
		}
	}

	// 宽高在这里完成范围校验：invalid_resolution 必须先于任何文件 I/O。
	cli, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage(os.Stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		emitReport(reportForConfigError(cwdAbs, err))
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(eff, obs)
	emitReport(rr)
	if !rr.OK() {
		return 1
	}
	return 0
}

// parseArgs 解析：[path] [-x|--width N] [-y|--height N]，也支持 --width=N / -x=N。
func parseArgs(args []string) (config.CLIArgs, error) {
	var (
		cli  config.CLIArgs
		w, h int64
	)

	for i := 0; i < len(args); i++ {
		a := args[i]

		name, val, hasVal := strings.Cut(a, "=")
		switch name {
		case "-x", "--width", "-y", "--height":
			if !hasVal {
				if i+1 >= len(args) {
					return config.CLIArgs{}, fmt.Errorf("%s 需要一个值", name)
				}
				i++
				val = args[i]
			}
			n, err := parseDimension(name, val)
			if err != nil {
				return config.CLIArgs{}, err
			}
			if name == "-x" || name == "--width" {
				w, cli.WidthSet = n, true
			} else {
				h, cli.HeightSet = n, true
			}
			continue
		}

		switch {
		case strings.HasPrefix(a, "-") && a != "-":
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if cli.Path != "" {
				return config.CLIArgs{}, fmt.Errorf("重复的 path：%q 与 %q", cli.Path, a)
			}
			cli.Path = a
		}
	}

	// 未指定的一边用默认值占位，只为统一走 NewResolution 的范围校验。
	if !cli.WidthSet {
		w = int64(domain.DefaultTarget.Width)
	}
	if !cli.HeightSet {
		h = int64(domain.DefaultTarget.Height)
	}
	r, err := domain.NewResolution(w, h)
	if err != nil {
		return config.CLIArgs{}, err
	}
	cli.Width, cli.Height = r.Width, r.Height
	return cli, nil
}

func parseDimension(flag, v string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			// 超出 int64 的值同样属于 invalid_resolution。
			return 0, &domain.InvalidResolutionError{Raw: v}
		}
		return 0, fmt.Errorf("%s 必须是非负整数，实际是 %q", flag, v)
	}
	return n, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `用法：
  annores [path] [-x|--width N] [-y|--height N]

为 Anno 1503 生成支持自定义分辨率的补丁文件。工具会在游戏目录中写出
一个或多个 AnnoFrame_patched_<N>.dll 和一个 Texte_patched.dat，原始文件不会被修改。
用 Texte_patched.dat 替换 Texte.dat，然后逐个尝试 DLL，直到其中一个可用。

参数：
  path           游戏目录（默认当前目录）
  -x, --width    目标宽度（默认 %d）
  -y, --height   目标高度（默认 %d）
  -h, --help     显示帮助

配置文件（可选）：<path>/%s，例如 {"width":1440,"height":900}；CLI 优先。

已知可用的分辨率：
%s`, domain.DefaultTarget.Width, domain.DefaultTarget.Height, config.FileName, knownGoodList())
}

func knownGoodList() string {
	var b strings.Builder
	for _, r := range domain.KnownGood {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	return b.String()
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		emitHuman(os.Stdout, os.Stderr, rr)
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rr)
	fmt.Fprintln(os.Stderr, summaryLine(rr))
}

func emitHuman(out, errw io.Writer, rr domain.RunReport) {
	for _, w := range rr.Warnings {
		fmt.Fprintf(errw, "警告 %s %s: %s\n", w.File, w.Code, w.Msg)
	}
	if !rr.OK() {
		file := rr.File
		if file == "" {
			file = "<config>"
		}
		fmt.Fprintf(errw, "%s %s: %s\n", file, rr.ErrorCode, rr.ErrorMsg)
		fmt.Fprintln(out, summaryLine(rr))
		return
	}

	fmt.Fprintln(out, summaryLine(rr))
	for _, c := range rr.Candidates {
		fmt.Fprintf(out, "  %s  offset=0x%08X middle=%s\n", c.File, c.Offset, c.Middle)
	}
	if rr.Text != nil {
		fmt.Fprintf(out, "  %s  replaced=%d\n", rr.Text.File, rr.Text.Replaced)
	}
	fmt.Fprintf(out, "下一步：用 %s 替换 %s，再逐个尝试候选 DLL（重命名为 %s）。\n",
		domain.PatchedTextName, domain.TextName, domain.BinaryName)
}

func summaryLine(rr domain.RunReport) string {
	if !rr.OK() {
		return fmt.Sprintf("失败：%s -> %s error=%s", rr.Old, rr.Target, rr.ErrorCode)
	}
	return fmt.Sprintf("完成：%s -> %s candidates=%d warnings=%d",
		rr.Old, rr.Target, len(rr.Candidates), len(rr.Warnings),
	)
}

func reportForConfigError(cwdAbs string, err error) domain.RunReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rr := domain.RunReport{
		Path:       cwdAbs,
		Old:        domain.OldResolution.String(),
		StartedAt:  now,
		FinishedAt: now,
		ErrorCode:  code,
		ErrorMsg:   err.Error(),
		File:       config.FileName,
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
