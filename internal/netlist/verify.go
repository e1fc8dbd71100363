// Package netlist 实现振荡器网络的生成、合成与校验。
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var reInstROFull = regexp.MustCompile(`^XRO_(\d+)_(\d+)$`)

// Verify 校验一份网络网表是否与期望的六角网格一致
// 检查项：
//  1. RING_OSC 实例数量等于 rows*cols；
//  2. 每个实例的节点名符合 N_<r>_<c>_<pin> 约定（pin 1-7）；
//  3. 每个格子与其全部六角邻居之间都有耦合实例（任一方向即可，
//     生成器对无向邻接只实例化一个方向）；
//  4. 不存在非六角相邻的耦合实例；
//  5. 耦合器按 N1 → N3 引脚约定接线。
//
// 返回第一处不一致的描述性错误；全部通过返回 nil。
func Verify(r io.Reader, rows, cols int) error {
	ringNodes := make(map[Cell][]string)
	couplings := make(map[CouplingPair]bool)
	couplerWires := make(map[CouplingPair][2]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}

		if m := reInstROFull.FindStringSubmatch(tokens[0]); m != nil && strings.Contains(line, "RING_OSC") {
			// XRO_r_c N1..N7 EN vdd gnd RING_OSC
			if len(tokens) < 9 {
				return fmt.Errorf("RING_OSC 实例 %s 端口数不足", tokens[0])
			}
			cell := Cell{mustAtoi(m[1]), mustAtoi(m[2])}
			ringNodes[cell] = tokens[1:8]
			continue
		}
		if m := reInstCPL.FindStringSubmatch(tokens[0]); m != nil && strings.Contains(line, "COUPLING") {
			// XCPL_r1_c1__r2_c2 EN nodeA nodeB vdd gnd COUPLING
			if len(tokens) < 7 {
				return fmt.Errorf("COUPLING 实例 %s 端口数不足", tokens[0])
			}
			p := CouplingPair{mustAtoi(m[1]), mustAtoi(m[2]), mustAtoi(m[3]), mustAtoi(m[4])}
			couplings[p] = true
			couplerWires[p] = [2]string{tokens[2], tokens[3]}
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取网表失败: %w", err)
	}

	// 1. 实例数量
	if want := rows * cols; len(ringNodes) != want {
		return fmt.Errorf("RING_OSC 实例数不符: 期望 %d，实际 %d", want, len(ringNodes))
	}

	// 2. 节点命名
	for cell, nodes := range ringNodes {
		for pin := 1; pin <= 7; pin++ {
			want := NodeName(cell.Row, cell.Col, pin)
			if nodes[pin-1] != want {
				return fmt.Errorf("RO(%d,%d) 引脚 %d 节点名不符: 期望 %s，实际 %s",
					cell.Row, cell.Col, pin, want, nodes[pin-1])
			}
		}
	}

	// 3. 每格的邻居集合（无向，任一方向的实例都算）
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for _, nb := range HexNeighbors(rows, cols, r, c) {
				fwd := couplings[CouplingPair{r, c, nb.Row, nb.Col}]
				rev := couplings[CouplingPair{nb.Row, nb.Col, r, c}]
				if !fwd && !rev {
					return fmt.Errorf("RO(%d,%d) 缺少到 (%d,%d) 的耦合", r, c, nb.Row, nb.Col)
				}
			}
		}
	}

	// 4. 非六角相邻的耦合是非法的
	for p := range couplings {
		adjacent := false
		for _, nb := range HexNeighbors(rows, cols, p.R1, p.C1) {
			if nb == (Cell{p.R2, p.C2}) {
				adjacent = true
				break
			}
		}
		if !adjacent {
			return fmt.Errorf("耦合 (%d,%d)→(%d,%d) 不满足六角邻接", p.R1, p.C1, p.R2, p.C2)
		}
	}

	// 5. N1 → N3 引脚约定
	for p, wires := range couplerWires {
		wantA := NodeName(p.R1, p.C1, 1)
		wantB := NodeName(p.R2, p.C2, 3)
		if wires[0] != wantA || wires[1] != wantB {
			return fmt.Errorf("耦合器 XCPL_%d_%d__%d_%d 接线不符: 期望 %s → %s，实际 %s → %s",
				p.R1, p.C1, p.R2, p.C2, wantA, wantB, wires[0], wires[1])
		}
	}

	return nil
}
