// Package waveform 实现原始波形表的加载与校验。
// 输入为仿真器导出的无表头数值表：第 1 列时间，第 2 列保留不用，
// 其余各列按外部给定的通道名顺序对应一个电压序列。
//
// 所有格式校验在任何边沿检测之前完成：列数不符、时间回退、
// 缺失/NaN 电压一律判为非法输入并整体拒绝，绝不静默强转。
package waveform

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/util/fastparse"
)

// ErrMalformedInput 输入波形表格式非法
// 批级致命错误：任何一行不合法都拒绝整张表。
var ErrMalformedInput = errors.New("输入波形表格式非法")

// reservedColumns 时间列 + 保留列
const reservedColumns = 2

// Table 已校验的波形表
// Time 为共享时间轴，volts 按通道顺序存放各电压序列。
type Table struct {
	// Time 共享时间轴（非递减）
	Time []float64

	names []string
	volts [][]float64
}

// Rows 获取采样行数
func (t *Table) Rows() int {
	return len(t.Time)
}

// Names 获取通道名列表（按输入列顺序）
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Channels 导出全部通道波形（按输入列顺序）
// 各通道共享同一条时间轴切片，应视为只读。
func (t *Table) Channels() []model.Channel {
	out := make([]model.Channel, len(t.names))
	for i, name := range t.names {
		out[i] = model.Channel{Name: name, Time: t.Time, Voltages: t.volts[i]}
	}
	return out
}

// Load 从文件加载并校验波形表
// 参数 path: 波形表文件路径
// 参数 names: 通道名列表（外部给定的列顺序）
func Load(path string, names []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开波形表失败: %w", err)
	}
	defer f.Close()

	t, err := Parse(f, names)
	if err != nil {
		return nil, fmt.Errorf("解析波形表 %s 失败: %w", path, err)
	}
	return t, nil
}

// Parse 从流解析并校验波形表
// 参数 r: 波形表内容（空白分隔的数值行）
// 参数 names: 通道名列表（外部给定的列顺序）
// 返回: 校验通过的波形表；任何一行非法都返回 ErrMalformedInput
func Parse(r io.Reader, names []string) (*Table, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: 通道名列表为空", ErrMalformedInput)
	}

	wantCols := reservedColumns + len(names)
	t := &Table{names: append([]string(nil), names...)}
	t.volts = make([][]float64, len(names))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != wantCols {
			return nil, fmt.Errorf("%w: 第 %d 行有 %d 列，期望 %d 列", ErrMalformedInput, lineNo, len(fields), wantCols)
		}

		ts, err := parseCell(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行时间值 %q 非法", ErrMalformedInput, lineNo, fields[0])
		}
		if n := len(t.Time); n > 0 && ts < t.Time[n-1] {
			return nil, fmt.Errorf("%w: 第 %d 行时间回退（%v < %v）", ErrMalformedInput, lineNo, ts, t.Time[n-1])
		}
		t.Time = append(t.Time, ts)

		// fields[1] 为保留列，跳过校验以外不做任何使用
		if _, err := parseCell(fields[1]); err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行保留列 %q 非法", ErrMalformedInput, lineNo, fields[1])
		}

		for i := 0; i < len(names); i++ {
			v, err := parseCell(fields[reservedColumns+i])
			if err != nil {
				return nil, fmt.Errorf("%w: 第 %d 行通道 %s 电压值 %q 非法", ErrMalformedInput, lineNo, names[i], fields[reservedColumns+i])
			}
			t.volts[i] = append(t.volts[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取波形表失败: %w", err)
	}

	if len(t.Time) == 0 {
		return nil, fmt.Errorf("%w: 表为空", ErrMalformedInput)
	}
	return t, nil
}

// parseCell 解析单个数值单元格
// NaN 与 ±Inf 一律视为非法，绝不强转为 0。
func parseCell(s string) (float64, error) {
	v, err := fastparse.ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("非有限数值: %q", s)
	}
	return v, nil
}

// LoadNames 从文件加载通道名列表
// 每行一个通道名，忽略空行与 * 开头的注释行（与网表注释约定一致）。
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开通道名文件失败: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取通道名文件失败: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("通道名文件 %s 为空", path)
	}
	return names, nil
}
