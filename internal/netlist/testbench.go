// Package netlist 实现振荡器网络的生成、合成与校验。
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TestbenchOptions 测试台合成参数
type TestbenchOptions struct {
	// NetworkFile 网络子电路网表文件名（.include 引用）
	NetworkFile string
	// OutputCSV 仿真结束后 wrdata 导出的波形表文件名
	OutputCSV string
	// TranStep 瞬态仿真步长（ngspice 语法，如 "0.1ns"）
	TranStep string
	// TranStop 瞬态仿真时长（如 "2us"）
	TranStop string
	// SupplyV 电源电压（V）
	SupplyV float64
}

// setDefaults 填充测试台默认参数
func (o *TestbenchOptions) setDefaults() {
	if o.OutputCSV == "" {
		o.OutputCSV = "output_nodes.csv"
	}
	if o.TranStep == "" {
		o.TranStep = "0.1ns"
	}
	if o.TranStop == "" {
		o.TranStop = "2us"
	}
	if o.SupplyV == 0 {
		o.SupplyV = 1.0
	}
}

// WriteTestbench 合成驱动生成网络的 ngspice 测试台
// 只对图占用的格子驱动 EN_RO=1，只对图中存在的边驱动 EN_C=1，
// 其余使能一律置 0；探测节点按全网格顺序写入波形表。
// 参数 w: 输出流
// 参数 net: 生成的网络
// 参数 opts: 合成参数
func WriteTestbench(w io.Writer, net *Network, opts TestbenchOptions) error {
	if net == nil {
		return fmt.Errorf("网络为空")
	}
	if opts.NetworkFile == "" {
		return fmt.Errorf("网络网表文件名不能为空")
	}
	opts.setDefaults()

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "* Auto-testbench (planar graph mapped to RO grid)")
	fmt.Fprintln(bw)
	for _, inc := range includeFiles {
		fmt.Fprintf(bw, ".include %q\n", inc)
	}
	fmt.Fprintf(bw, ".include %q\n\n", opts.NetworkFile)

	roEnables := make([]string, 0, net.Rows*net.Cols)
	for r := 0; r < net.Rows; r++ {
		for c := 0; c < net.Cols; c++ {
			roEnables = append(roEnables, EnableRO(r, c))
		}
	}
	pairs := AllCouplingPairs(net.Rows, net.Cols)
	coupEnables := make([]string, 0, len(pairs))
	for _, p := range pairs {
		coupEnables = append(coupEnables, EnableCoupler(p.R1, p.C1, p.R2, p.C2))
	}
	probes := ProbeOrder(net.Rows, net.Cols)

	// 整个网络子电路的单一实例
	ports := make([]string, 0, len(roEnables)+len(coupEnables)+len(probes))
	ports = append(ports, roEnables...)
	ports = append(ports, coupEnables...)
	ports = append(ports, probes...)
	fmt.Fprintf(bw, "Xdut %s vdd gnd %s\n\n", strings.Join(ports, " "), DefaultSubcktName)

	// RO 使能：只开启图占用的格子
	fmt.Fprintln(bw, "* RO enables")
	for r := 0; r < net.Rows; r++ {
		for c := 0; c < net.Cols; c++ {
			val := 0
			if _, ok := net.CellNode(Cell{r, c}); ok {
				val = 1
			}
			fmt.Fprintf(bw, "V_%s %s gnd %d\n", EnableRO(r, c), EnableRO(r, c), val)
		}
	}
	fmt.Fprintln(bw)

	// 耦合器使能：只开启图中存在的边
	fmt.Fprintln(bw, "* Coupler enables")
	for _, p := range pairs {
		val := 0
		if net.HasCoupling(Cell{p.R1, p.C1}, Cell{p.R2, p.C2}) {
			val = 1
		}
		fmt.Fprintf(bw, "V_%s %s gnd %d\n",
			EnableCoupler(p.R1, p.C1, p.R2, p.C2),
			EnableCoupler(p.R1, p.C1, p.R2, p.C2), val)
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "VDD vdd gnd %g\n\n", opts.SupplyV)

	// 控制块：瞬态仿真并把全部探测节点写入波形表
	probeList := strings.Join(probes, " ")
	fmt.Fprintln(bw, ".control")
	fmt.Fprintf(bw, "save time %s\n", probeList)
	fmt.Fprintf(bw, "tran %s %s uic\n", opts.TranStep, opts.TranStop)
	fmt.Fprintln(bw, "set filetype=ascii")
	fmt.Fprintln(bw, "set wr_singlescale")
	fmt.Fprintln(bw, "set wr_vecnames")
	fmt.Fprintf(bw, "wrdata %s time %s\n", opts.OutputCSV, probeList)
	fmt.Fprintln(bw, "quit")
	fmt.Fprintln(bw, ".endc")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, ".end")

	return bw.Flush()
}
