// Package main 是振荡器自旋解码器的入口点。
// 解码器把瞬态仿真导出的原始波形表翻译回离散 Ising 自旋：
// 逐通道检测上升沿，选定参考通道并估计其周期，计算各通道的相对相位，
// 最后按 sign(cos(phase)) 离散为 ±1 并持久化 node→spin 映射。
//
// 上游（图生成、网表合成、电路仿真）与下游（可视化）均为外部协作者，
// 本程序只消费已时间有序的数值表并产出映射。
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"oscillator-spin-decoder/internal/archive"
	"oscillator-spin-decoder/internal/config"
	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/core/phase"
	"oscillator-spin-decoder/internal/core/pipeline"
	"oscillator-spin-decoder/internal/netlist"
	"oscillator-spin-decoder/internal/output/gml"
	"oscillator-spin-decoder/internal/output/report"
	"oscillator-spin-decoder/internal/output/spincsv"
	"oscillator-spin-decoder/internal/util/timeutil"
	"oscillator-spin-decoder/internal/waveform"
	"oscillator-spin-decoder/internal/waveform/stream"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，触发优雅退出
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，开始优雅关闭")
		cancel()
	}()

	names, err := waveform.LoadNames(cfg.Input.NodesPath)
	if err != nil {
		logger.Error("加载通道名列表失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("通道名列表已加载", zap.Int("channels", len(names)))

	var arch *archive.Store
	if cfg.Archive.Enabled {
		arch, err = archive.Open(cfg.Archive.DBPath)
		if err != nil {
			logger.Error("打开运行归档失败", zap.Error(err))
			os.Exit(1)
		}
		defer arch.Close()
	}

	var reportWriter *report.Writer
	if cfg.Output.ReportEnabled {
		reportWriter, err = report.NewWriter(filepath.Join(cfg.Output.Dir, cfg.Output.ReportFile), cfg.Output.BufferSize)
		if err != nil {
			logger.Error("创建运行报告 writer 失败", zap.Error(err))
			os.Exit(1)
		}
		defer reportWriter.Close()
	}

	switch {
	case cfg.Input.Stream.Enabled:
		err = runStream(ctx, logger, cfg, names, arch, reportWriter)
	case cfg.Watch.Enabled:
		err = runWatch(ctx, logger, cfg, names, arch, reportWriter)
	default:
		err = decodeFile(logger, cfg, names, arch, reportWriter)
	}
	if err != nil {
		logger.Error("解码失败", zap.Error(err))
		if reportWriter != nil {
			_ = reportWriter.Close()
		}
		if arch != nil {
			_ = arch.Close()
		}
		os.Exit(1)
	}
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// decodeFile 解码一张批式波形表文件
func decodeFile(
	logger *zap.Logger,
	cfg *config.Config,
	names []string,
	arch *archive.Store,
	reportWriter *report.Writer,
) error {
	table, err := waveform.Load(cfg.Input.RawPath, names)
	if err != nil {
		return err
	}
	return decodeTable(logger, cfg, table, cfg.Input.RawPath, arch, reportWriter)
}

// decodeTable 对已校验的波形表执行一次完整解码并持久化全部产物
func decodeTable(
	logger *zap.Logger,
	cfg *config.Config,
	table *waveform.Table,
	source string,
	arch *archive.Store,
	reportWriter *report.Writer,
) error {
	startedNs := timeutil.NowNano()

	pipe := pipeline.New(pipeline.Options{
		Threshold:     cfg.Decode.ThresholdV,
		Window:        cfg.Decode.Window,
		ReferenceMode: phase.ReferenceMode(cfg.Decode.Reference.Mode),
		Seed:          cfg.Decode.Reference.Seed,
	}, logger)

	mapping, rep, err := pipe.Decode(table.Channels())
	if err != nil {
		return err
	}
	finishedNs := timeutil.NowNano()

	spinsPath := filepath.Join(cfg.Output.Dir, cfg.Output.SpinsFile)
	if err := spincsv.WriteFile(spinsPath, mapping); err != nil {
		return err
	}

	logger.Info("自旋映射已写出",
		zap.String("path", spinsPath),
		zap.String("reference", rep.ReferenceNode),
		zap.Float64("period", rep.ReferencePeriod),
		zap.Int("channels", rep.Channels),
		zap.Int("defined", rep.Defined),
		zap.Strings("undefined", rep.UndefinedNodes))

	if cfg.Output.GML.Enabled {
		if err := exportGML(cfg, mapping); err != nil {
			// GML 是辅助产物，失败不推翻主结果
			logger.Warn("GML 导出失败", zap.Error(err))
		}
	}

	var runID string
	if arch != nil {
		runID, err = arch.RecordRun(source,
			timeutil.NanoToTime(startedNs), timeutil.NanoToTime(finishedNs), mapping, rep)
		if err != nil {
			logger.Warn("运行归档失败", zap.Error(err))
		} else {
			logger.Info("运行已归档", zap.String("run_id", runID))
		}
	}

	if reportWriter != nil {
		_ = reportWriter.Write(&report.RunRecord{
			RunID:        runID,
			Source:       source,
			StartedAtNs:  startedNs,
			FinishedAtNs: finishedNs,
			Report:       *rep,
		})
		_ = reportWriter.Flush()
	}

	return nil
}

// exportGML 用外部拓扑为解码结果导出着色 GML
func exportGML(cfg *config.Config, mapping *model.ResultMapping) error {
	netFile, err := os.Open(cfg.Output.GML.NetworkPath)
	if err != nil {
		return fmt.Errorf("打开网络网表失败: %w", err)
	}
	defer netFile.Close()
	topo, err := netlist.ParseNetwork(netFile)
	if err != nil {
		return err
	}

	tbFile, err := os.Open(cfg.Output.GML.TestbenchPath)
	if err != nil {
		return fmt.Errorf("打开测试台失败: %w", err)
	}
	defer tbFile.Close()
	enables, err := netlist.ParseEnables(tbFile)
	if err != nil {
		return err
	}

	outPath := filepath.Join(cfg.Output.Dir, cfg.Output.GML.File)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("创建 GML 输出失败: %w", err)
	}
	defer out.Close()

	return gml.Write(out, topo, enables, mapping)
}

// runWatch 监视波形表文件并在每次重写后自动重解码
func runWatch(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	names []string,
	arch *archive.Store,
	reportWriter *report.Writer,
) error {
	// 启动时先解一次，之后等待仿真器重写文件
	if err := decodeFile(logger, cfg, names, arch, reportWriter); err != nil {
		logger.Warn("首次解码失败，继续监视", zap.Error(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监视器失败: %w", err)
	}
	defer watcher.Close()

	// 监视目录而不是文件本身：rename 写入不会丢事件
	rawPath, err := filepath.Abs(cfg.Input.RawPath)
	if err != nil {
		return fmt.Errorf("解析波形表路径失败: %w", err)
	}
	if err := watcher.Add(filepath.Dir(rawPath)); err != nil {
		return fmt.Errorf("监视目录失败: %w", err)
	}

	logger.Info("进入监视模式", zap.String("path", rawPath))

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evPath, _ := filepath.Abs(ev.Name)
			if evPath != rawPath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// 去抖：仿真器分多次写文件时只在安静后解码一次
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("文件监视错误", zap.Error(err))

		case <-timerCh:
			logger.Info("波形表已更新，重新解码")
			if err := decodeFile(logger, cfg, names, arch, reportWriter); err != nil {
				logger.Warn("重解码失败，继续监视", zap.Error(err))
			}
		}
	}
}

// runStream 从仿真桥流式接收整张波形表后解码
func runStream(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	names []string,
	arch *archive.Store,
	reportWriter *report.Writer,
) error {
	client := stream.NewClient(&cfg.Input.Stream, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	if err := client.Connect(connectCtx); err != nil {
		return err
	}
	defer client.Close()

	go client.Run(ctx)

	// 累积全部数据行；流正常关闭即表示表已写完
	var buf bytes.Buffer
	rowCh := client.RowCh()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("流式摄入被取消")
		case row, ok := <-rowCh:
			if !ok {
				rowCh = nil
			} else {
				buf.WriteString(row)
				buf.WriteByte('\n')
				continue
			}
		}
		if rowCh == nil {
			break
		}
	}

	m := client.Metrics()
	logger.Info("波形流摄入完成",
		zap.Int64("rows", m.RowsReceived),
		zap.Int64("reconnects", m.ReconnectCount),
		zap.Int64("dropped", m.DroppedRows))

	table, err := waveform.Parse(&buf, names)
	if err != nil {
		return fmt.Errorf("解析流式波形表失败: %w", err)
	}
	return decodeTable(logger, cfg, table, cfg.Input.Stream.URL, arch, reportWriter)
}
