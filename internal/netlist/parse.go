// Package netlist 实现振荡器网络的生成、合成与校验。
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"oscillator-spin-decoder/internal/util/fastparse"
)

var (
	reEnableRO = regexp.MustCompile(`^V_EN_RO_(\d+)_(\d+)\s+\S+\s+\S+\s+([01])$`)
	reEnableC  = regexp.MustCompile(`^V_EN_C_(\d+)_(\d+)__(\d+)_(\d+)\s+\S+\s+\S+\s+([01])$`)
	reInstRO   = regexp.MustCompile(`^XRO_(\d+)_(\d+)\b`)
	reInstCPL  = regexp.MustCompile(`^XCPL_(\d+)_(\d+)__(\d+)_(\d+)\b`)
)

// Enables 测试台中解析出的使能状态
type Enables struct {
	// RO 格子 → 振荡器使能值（0/1）
	RO map[Cell]int
	// Coupler 有序耦合对 → 耦合器使能值（0/1）
	Coupler map[CouplingPair]int
}

// CouplerOn 判断一条无向耦合（任一方向）是否启用
func (e *Enables) CouplerOn(a, b Cell) bool {
	if e.Coupler[CouplingPair{a.Row, a.Col, b.Row, b.Col}] == 1 {
		return true
	}
	return e.Coupler[CouplingPair{b.Row, b.Col, a.Row, a.Col}] == 1
}

// ParseEnables 从测试台文件解析使能源
// 只识别 V_EN_RO_* 与 V_EN_C_* 行，其余行忽略。
func ParseEnables(r io.Reader) (*Enables, error) {
	out := &Enables{
		RO:      make(map[Cell]int),
		Coupler: make(map[CouplingPair]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := reEnableRO.FindStringSubmatch(line); m != nil {
			r1 := mustAtoi(m[1])
			c1 := mustAtoi(m[2])
			out.RO[Cell{r1, c1}] = mustAtoi(m[3])
			continue
		}
		if m := reEnableC.FindStringSubmatch(line); m != nil {
			p := CouplingPair{mustAtoi(m[1]), mustAtoi(m[2]), mustAtoi(m[3]), mustAtoi(m[4])}
			out.Coupler[p] = mustAtoi(m[5])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取测试台失败: %w", err)
	}
	return out, nil
}

// Topology 网表中解析出的拓扑
type Topology struct {
	// ROPositions 全部振荡器实例的格子（按出现顺序）
	ROPositions []Cell
	// Couplings 全部耦合器实例的有序对（按出现顺序）
	Couplings []CouplingPair
}

// ParseNetwork 从网络网表解析振荡器与耦合器实例
// 只识别 XRO_* 与 XCPL_* 实例行，注释与空行忽略。
func ParseNetwork(r io.Reader) (*Topology, error) {
	out := &Topology{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}

		if m := reInstRO.FindStringSubmatch(line); m != nil {
			out.ROPositions = append(out.ROPositions, Cell{mustAtoi(m[1]), mustAtoi(m[2])})
			continue
		}
		if m := reInstCPL.FindStringSubmatch(line); m != nil {
			out.Couplings = append(out.Couplings, CouplingPair{
				mustAtoi(m[1]), mustAtoi(m[2]), mustAtoi(m[3]), mustAtoi(m[4]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取网表失败: %w", err)
	}
	return out, nil
}

// mustAtoi 解析正则捕获组中的整数
// 捕获组已保证只含数字，失败不可能发生。
func mustAtoi(s string) int {
	v, _ := fastparse.ParseInt(s)
	return int(v)
}
