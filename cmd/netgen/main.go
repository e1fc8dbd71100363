// Package main 是振荡器网络生成器的入口点。
// 生成一张连通的平面图并映射到六角网格，随后合成两份 ngspice 产物：
// 全网格的网络子电路网表与只使能图占用部分的测试台，
// 同时导出解码器消费的探测节点清单与图的边列表。
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"oscillator-spin-decoder/internal/netlist"
)

func main() {
	var (
		rows          int
		cols          int
		nodes         int
		seed          int64
		extraEdgeProb float64
		outDir        string
		networkFile   string
		testbenchFile string
		nodesFile     string
		edgesFile     string
		outputCSV     string
		tranStep      string
		tranStop      string
		supplyV       float64
		verify        bool
	)
	flag.IntVar(&rows, "rows", 10, "网格行数")
	flag.IntVar(&cols, "cols", 10, "网格列数")
	flag.IntVar(&nodes, "nodes", 0, "逻辑节点数（默认 rows*cols/2）")
	flag.Int64Var(&seed, "seed", 0, "随机种子（0 表示取当前时间）")
	flag.Float64Var(&extraEdgeProb, "extra-edge-prob", 0.3, "附加随机边概率")
	flag.StringVar(&outDir, "out", ".", "输出目录")
	flag.StringVar(&networkFile, "network-file", "ro_network.subckt", "网络网表文件名")
	flag.StringVar(&testbenchFile, "testbench-file", "testbench.sp", "测试台文件名")
	flag.StringVar(&nodesFile, "nodes-file", "nodes.txt", "探测节点清单文件名")
	flag.StringVar(&edgesFile, "edges-file", "edges.txt", "图边列表文件名")
	flag.StringVar(&outputCSV, "output-csv", "output_nodes.csv", "仿真波形表文件名")
	flag.StringVar(&tranStep, "tran-step", "0.1ns", "瞬态仿真步长")
	flag.StringVar(&tranStop, "tran-stop", "2us", "瞬态仿真时长")
	flag.Float64Var(&supplyV, "supply", 1.0, "电源电压（V）")
	flag.BoolVar(&verify, "verify", true, "合成后回读校验网络网表")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if nodes == 0 {
		nodes = rows * cols / 2
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	net, err := netlist.Generate(netlist.GenerateOptions{
		Rows:          rows,
		Cols:          cols,
		Nodes:         nodes,
		Seed:          seed,
		ExtraEdgeProb: extraEdgeProb,
	})
	if err != nil {
		logger.Error("生成网络失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("网络已生成",
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("nodes", nodes),
		zap.Int64("seed", seed),
		zap.Int("edges", len(net.Edges())))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Error("创建输出目录失败", zap.Error(err))
		os.Exit(1)
	}

	networkPath := filepath.Join(outDir, networkFile)
	if err := writeFile(networkPath, func(w *bufio.Writer) error {
		return netlist.WriteNetwork(w, rows, cols)
	}); err != nil {
		logger.Error("写出网络网表失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("网络网表已写出", zap.String("path", networkPath))

	tbPath := filepath.Join(outDir, testbenchFile)
	if err := writeFile(tbPath, func(w *bufio.Writer) error {
		return netlist.WriteTestbench(w, net, netlist.TestbenchOptions{
			NetworkFile: networkFile,
			OutputCSV:   outputCSV,
			TranStep:    tranStep,
			TranStop:    tranStop,
			SupplyV:     supplyV,
		})
	}); err != nil {
		logger.Error("写出测试台失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("测试台已写出", zap.String("path", tbPath))

	// 探测节点清单与波形表列顺序一致，解码器直接消费
	nodesPath := filepath.Join(outDir, nodesFile)
	if err := writeFile(nodesPath, func(w *bufio.Writer) error {
		for _, probe := range netlist.ProbeOrder(rows, cols) {
			if _, err := fmt.Fprintln(w, probe); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		logger.Error("写出探测节点清单失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("探测节点清单已写出", zap.String("path", nodesPath))

	edgesPath := filepath.Join(outDir, edgesFile)
	if err := writeFile(edgesPath, func(w *bufio.Writer) error {
		for _, e := range net.Edges() {
			if _, err := fmt.Fprintf(w, "%s %s\n", e[0], e[1]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		logger.Error("写出边列表失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("边列表已写出", zap.String("path", edgesPath))

	if verify {
		f, err := os.Open(networkPath)
		if err != nil {
			logger.Error("回读网络网表失败", zap.Error(err))
			os.Exit(1)
		}
		err = netlist.Verify(f, rows, cols)
		f.Close()
		if err != nil {
			logger.Error("网络网表校验失败", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("网络网表校验通过")
	}
}

// writeFile 以缓冲方式写出一份产物文件
func writeFile(path string, fn func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
