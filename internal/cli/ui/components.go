// Package ui 提供基于pterm的终端输出组件
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/weisyn/coprocessor/internal/core/jobs"
)

// Format 输出格式
type Format string

const (
	// FormatPretty 表格与彩色提示
	FormatPretty Format = "pretty"
	// FormatJSON 纯JSON输出
	FormatJSON Format = "json"
)

// ThemeConfig 主题配置
type ThemeConfig struct {
	PrimaryColor pterm.Color
	SuccessColor pterm.Color
	WarningColor pterm.Color
	ErrorColor   pterm.Color
}

func defaultTheme() *ThemeConfig {
	return &ThemeConfig{
		PrimaryColor: pterm.BgCyan,
		SuccessColor: pterm.FgGreen,
		WarningColor: pterm.FgYellow,
		ErrorColor:   pterm.FgRed,
	}
}

// Components 终端输出组件
type Components struct {
	format Format
	out    io.Writer
	theme  *ThemeConfig
}

// NewComponents 创建输出组件，非 json 的格式一律按 pretty 处理
func NewComponents(format Format, out io.Writer) *Components {
	if format != FormatJSON {
		format = FormatPretty
	}
	return &Components{format: format, out: out, theme: defaultTheme()}
}

// Format 当前输出格式
func (c *Components) Format() Format {
	return c.format
}

// ShowJSON 缩进输出任意值
func (c *Components) ShowJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(b))
	return err
}

// ShowKeyValuePairs 按键名排序显示键值对，json 模式输出对象
func (c *Components) ShowKeyValuePairs(title string, pairs map[string]string) error {
	if c.format == FormatJSON {
		return c.ShowJSON(pairs)
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := [][]string{{"项目", "值"}}
	for _, k := range keys {
		data = append(data, []string{k, truncateString(pairs[k], 120)})
	}
	return c.ShowTable(title, data)
}

// ShowTable 显示表格，第一行为表头
func (c *Components) ShowTable(title string, data [][]string) error {
	if len(data) == 0 {
		return fmt.Errorf("表格数据为空")
	}
	if title != "" {
		header := pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(c.theme.PrimaryColor)).Sprint(title)
		_, _ = fmt.Fprintln(c.out, header)
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, table)
	return err
}

// ShowProofResult 显示证明结果
//
// json 模式原样输出线格式，便于脚本直接消费。
func (c *Components) ShowProofResult(res *jobs.ProofResultWire) error {
	if c.format == FormatJSON {
		return c.ShowJSON(res)
	}
	pairs := map[string]string{
		"proving_type":  res.ProvingType,
		"program_hash":  res.ProgramHash,
		"sound":         strconv.FormatBool(res.Sound),
		"proof":         res.Proof,
		"public_values": res.PublicValues,
		"inputs":        res.Inputs,
	}
	if res.Cycles > 0 {
		pairs["cycles"] = strconv.FormatUint(res.Cycles, 10)
	}
	if res.VerifierArtifacts != "" {
		pairs["verifier_artifacts"] = res.VerifierArtifacts
	}
	if res.OutputDir != "" {
		pairs["output_dir"] = res.OutputDir
	}
	if err := c.ShowKeyValuePairs("证明结果", pairs); err != nil {
		return err
	}
	if !res.Sound {
		c.ShowWarning("Fast 模式结果不具备密码学可靠性，仅用于调试")
	}
	return nil
}

// ShowJobError 显示任务错误，json 模式输出结构化错误
func (c *Components) ShowJobError(err *jobs.JobError) {
	if c.format == FormatJSON {
		_, _ = fmt.Fprintln(c.out, string(err.JSON()))
		return
	}
	msg := fmt.Sprintf("[%s] %s", err.Kind, err.Message)
	if err.Stage != "" {
		msg = fmt.Sprintf("[%s@%s] %s", err.Kind, err.Stage, err.Message)
	}
	if err.Retryable {
		msg += " (可重试)"
	}
	c.ShowError(msg)
}

// ShowSuccess 显示成功消息，json 模式静默
func (c *Components) ShowSuccess(message string) {
	if c.format == FormatJSON {
		return
	}
	_, _ = fmt.Fprint(c.out, pterm.Success.WithPrefix(pterm.Prefix{
		Text:  "SUCCESS",
		Style: pterm.NewStyle(c.theme.SuccessColor),
	}).Sprintln(message))
}

// ShowWarning 显示警告消息，json 模式静默
func (c *Components) ShowWarning(message string) {
	if c.format == FormatJSON {
		return
	}
	_, _ = fmt.Fprint(c.out, pterm.Warning.WithPrefix(pterm.Prefix{
		Text:  "WARNING",
		Style: pterm.NewStyle(c.theme.WarningColor),
	}).Sprintln(message))
}

// ShowError 显示错误消息
func (c *Components) ShowError(message string) {
	_, _ = fmt.Fprint(c.out, pterm.Error.WithPrefix(pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(c.theme.ErrorColor),
	}).Sprintln(message))
}

// StartSpinner 长时间操作的进度提示，返回停止函数
func (c *Components) StartSpinner(message string) func(success bool) {
	if c.format == FormatJSON {
		return func(bool) {}
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(c.out).WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return func(bool) {}
	}
	return func(success bool) {
		if success {
			spinner.Success()
		} else {
			spinner.Fail()
		}
	}
}

// truncateString 截断字符串到指定长度
func truncateString(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen-3] + "..."
}
