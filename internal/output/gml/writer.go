// Package gml 实现带自旋着色的拓扑 GML 导出。
// 只导出使能的振荡器与使能的耦合边，节点携带网格坐标、六角布局坐标
// 与 signum 属性；无效自旋用 -999 哨兵值表示（下游可视化工具约定）。
package gml

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/netlist"
)

// hexPosition 计算六角网格格子的平面布局坐标
func hexPosition(r, c int) (x, y float64) {
	const size = 1.0
	dx := math.Sqrt(3) * size
	dy := 1.5 * size
	x = float64(c)*dx + float64(r%2)*(dx/2)
	y = float64(r) * dy
	return x, y
}

// Write 导出着色拓扑
// 参数 w: 输出流
// 参数 topo: 网表解析出的拓扑
// 参数 enables: 测试台解析出的使能状态
// 参数 mapping: 解码结果（按探测节点名查询）
func Write(w io.Writer, topo *netlist.Topology, enables *netlist.Enables, mapping *model.ResultMapping) error {
	if topo == nil || enables == nil || mapping == nil {
		return fmt.Errorf("拓扑、使能或解码结果为空")
	}

	// 只保留使能的振荡器，id 按格子排序分配
	var active []netlist.Cell
	for _, cell := range topo.ROPositions {
		if enables.RO[cell] == 1 {
			active = append(active, cell)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Row != active[j].Row {
			return active[i].Row < active[j].Row
		}
		return active[i].Col < active[j].Col
	})
	idFor := make(map[netlist.Cell]int, len(active))
	for i, cell := range active {
		idFor[cell] = i
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 0")

	for _, cell := range active {
		x, y := hexPosition(cell.Row, cell.Col)

		// signum: +1/-1，查不到或无效时 -999
		sig := -999
		if res, ok := mapping.Get(netlist.ProbeNode(cell.Row, cell.Col)); ok && res.Spin.Defined() {
			sig = int(res.Spin)
		}

		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", idFor[cell])
		fmt.Fprintf(bw, "    label \"%d,%d\"\n", cell.Row, cell.Col)
		fmt.Fprintf(bw, "    r %d\n", cell.Row)
		fmt.Fprintf(bw, "    c %d\n", cell.Col)
		fmt.Fprintf(bw, "    signum %d\n", sig)
		fmt.Fprintf(bw, "    x %g\n", x)
		fmt.Fprintf(bw, "    y %g\n", y)
		fmt.Fprintln(bw, "  ]")
	}

	for _, p := range topo.Couplings {
		a := netlist.Cell{Row: p.R1, Col: p.C1}
		b := netlist.Cell{Row: p.R2, Col: p.C2}
		if !enables.CouplerOn(a, b) {
			continue
		}
		src, okA := idFor[a]
		tgt, okB := idFor[b]
		if !okA || !okB {
			continue
		}
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", src)
		fmt.Fprintf(bw, "    target %d\n", tgt)
		fmt.Fprintln(bw, "  ]")
	}

	fmt.Fprintln(bw, "]")
	return bw.Flush()
}
