// Package netlist 实现振荡器网络的生成、合成与校验。
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultSubcktName 全网格网络子电路的默认名字
const DefaultSubcktName = "RING_OSC_NETWORK"

// includeFiles 网络与测试台共用的模型/子电路包含列表
var includeFiles = []string{
	"ptm_45nm_lp.l",
	"inv.subckt",
	"nand.subckt",
	"ring_osc.subckt",
	"coupling.subckt",
}

// WriteNetwork 合成全网格网络子电路网表
// 为 rows*cols 个格子各实例化一个 RING_OSC，并为每个去重六角邻接对
// 实例化一个 COUPLING（引脚约定 N1 → N3）。全部使能端、探测节点
// 与电源端作为子电路端口导出。
// 参数 w: 输出流
// 参数 rows, cols: 网格尺寸
func WriteNetwork(w io.Writer, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("网格尺寸非法: %dx%d", rows, cols)
	}

	bw := bufio.NewWriter(w)

	for _, inc := range includeFiles {
		fmt.Fprintf(bw, ".include %q\n", inc)
	}
	fmt.Fprintln(bw)

	roEnables := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			roEnables = append(roEnables, EnableRO(r, c))
		}
	}

	pairs := AllCouplingPairs(rows, cols)
	coupEnables := make([]string, 0, len(pairs))
	for _, p := range pairs {
		coupEnables = append(coupEnables, EnableCoupler(p.R1, p.C1, p.R2, p.C2))
	}

	probes := ProbeOrder(rows, cols)

	ports := make([]string, 0, len(roEnables)+len(coupEnables)+len(probes)+2)
	ports = append(ports, roEnables...)
	ports = append(ports, coupEnables...)
	ports = append(ports, probes...)
	ports = append(ports, "vdd", "gnd")

	fmt.Fprintf(bw, ".subckt %s %s\n\n", DefaultSubcktName, strings.Join(ports, " "))

	// 全部 RING_OSC 实例（引脚 N_r_c_1 .. N_r_c_7）
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			nodes := make([]string, 0, 7)
			for pin := 1; pin <= 7; pin++ {
				nodes = append(nodes, NodeName(r, c, pin))
			}
			fmt.Fprintf(bw, "XRO_%d_%d %s %s vdd gnd RING_OSC\n", r, c, strings.Join(nodes, " "), EnableRO(r, c))
		}
	}
	fmt.Fprintln(bw)

	// 全部 COUPLING 实例（N1 → N3）
	for _, p := range pairs {
		fmt.Fprintf(bw, "XCPL_%d_%d__%d_%d %s %s %s vdd gnd COUPLING\n",
			p.R1, p.C1, p.R2, p.C2,
			EnableCoupler(p.R1, p.C1, p.R2, p.C2),
			NodeName(p.R1, p.C1, 1),
			NodeName(p.R2, p.C2, 3))
	}

	fmt.Fprintf(bw, "\n.ends %s\n", DefaultSubcktName)
	return bw.Flush()
}
