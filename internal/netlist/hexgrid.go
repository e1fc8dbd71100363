// Package netlist 实现振荡器网络的生成、合成与校验。
// 负责六角网格邻接规则、平面图生成、网表与测试台合成、
// 以及探测节点（通道名）顺序的导出。
package netlist

import (
	"fmt"
	"sort"
)

// MaxDegree 单个振荡器允许的最大耦合数
// 六角网格中每个格子最多 6 个邻居。
const MaxDegree = 6

// Cell 网格坐标
type Cell struct {
	// Row 行号（从 0 开始）
	Row int
	// Col 列号（从 0 开始）
	Col int
}

// HexNeighbors 获取六角网格中 (r, c) 的全部有效邻居
// 偶数行与奇数行的斜向邻居列偏移不同（offset 坐标系）：
//
//	偶数行: (r±1, c-1), (r±1, c)
//	奇数行: (r±1, c),   (r±1, c+1)
//
// 与网络生成器使用同一套约定，保证校验与生成自洽。
func HexNeighbors(rows, cols, r, c int) []Cell {
	var cand []Cell
	if r%2 == 0 {
		cand = []Cell{
			{r, c - 1}, {r, c + 1},
			{r - 1, c - 1}, {r - 1, c},
			{r + 1, c - 1}, {r + 1, c},
		}
	} else {
		cand = []Cell{
			{r, c - 1}, {r, c + 1},
			{r - 1, c}, {r - 1, c + 1},
			{r + 1, c}, {r + 1, c + 1},
		}
	}

	out := make([]Cell, 0, len(cand))
	for _, cell := range cand {
		if cell.Row >= 0 && cell.Row < rows && cell.Col >= 0 && cell.Col < cols {
			out = append(out, cell)
		}
	}
	return out
}

// NodeName 振荡器内部节点名
// 参数 pin: 引脚编号（1-7）
func NodeName(r, c, pin int) string {
	return fmt.Sprintf("N_%d_%d_%d", r, c, pin)
}

// ProbeNode 振荡器的探测节点名（引脚 1）
// 解码器的通道名即按全网格顺序排列的探测节点名。
func ProbeNode(r, c int) string {
	return NodeName(r, c, 1)
}

// EnableRO 振荡器使能节点名
func EnableRO(r, c int) string {
	return fmt.Sprintf("EN_RO_%d_%d", r, c)
}

// EnableCoupler 耦合器使能节点名
func EnableCoupler(r1, c1, r2, c2 int) string {
	return fmt.Sprintf("EN_C_%d_%d__%d_%d", r1, c1, r2, c2)
}

// ProbeOrder 全网格探测节点名列表（行优先）
// 该顺序与测试台 wrdata 导出的列顺序一致，是解码器的通道名顺序。
func ProbeOrder(rows, cols int) []string {
	out := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, ProbeNode(r, c))
		}
	}
	return out
}

// CouplingPair 一条有序耦合对 (r1,c1) → (r2,c2)
type CouplingPair struct {
	R1, C1, R2, C2 int
}

// AllCouplingPairs 全网格的全部去重耦合对（按字典序）
// 每对无向邻接只保留一个方向，与网络生成器的遍历顺序一致。
func AllCouplingPairs(rows, cols int) []CouplingPair {
	seen := make(map[CouplingPair]bool)
	var out []CouplingPair
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for _, nb := range HexNeighbors(rows, cols, r, c) {
				rev := CouplingPair{nb.Row, nb.Col, r, c}
				if seen[rev] {
					continue
				}
				p := CouplingPair{r, c, nb.Row, nb.Col}
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	sortPairs(out)
	return out
}

// sortPairs 按字典序 (r1, c1, r2, c2) 排序
func sortPairs(pairs []CouplingPair) {
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.R1 != b.R1 {
			return a.R1 < b.R1
		}
		if a.C1 != b.C1 {
			return a.C1 < b.C1
		}
		if a.R2 != b.R2 {
			return a.R2 < b.R2
		}
		return a.C2 < b.C2
	})
}
