// Package config 负责加载和验证 YAML 配置文件。
// 提供解码器所需的所有配置项，包括解码参数、输入来源、输出与归档设置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用配置根结构
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Decode 解码参数配置
	Decode DecodeConfig `yaml:"decode"`
	// Input 输入来源配置
	Input InputConfig `yaml:"input"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
	// Archive 运行归档配置
	Archive ArchiveConfig `yaml:"archive"`
	// Watch 文件监视配置
	Watch WatchConfig `yaml:"watch"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// DecodeConfig 解码参数配置
type DecodeConfig struct {
	// ThresholdV 上升沿判定阈值（V），默认 0.5（标称逻辑高电平的一半）
	ThresholdV float64 `yaml:"threshold_v"`
	// Window 稳态窗口大小（上升沿个数），默认 6
	Window int `yaml:"window"`
	// Reference 参考通道选择配置
	Reference ReferenceConfig `yaml:"reference"`
}

// ReferenceConfig 参考通道选择配置
type ReferenceConfig struct {
	// Mode 选择模式: first（确定性，默认）或 random
	Mode string `yaml:"mode"`
	// Seed 随机模式的种子；random 模式下必须显式给出非零值
	Seed int64 `yaml:"seed"`
}

// InputConfig 输入来源配置
type InputConfig struct {
	// RawPath 波形表文件路径（批式输入）
	RawPath string `yaml:"raw_path"`
	// NodesPath 通道名文件路径（每行一个名字，给定列顺序）
	NodesPath string `yaml:"nodes_path"`
	// Stream 流式输入配置（从仿真桥实时接收行）
	Stream StreamConfig `yaml:"stream"`
}

// StreamConfig 波形流 WebSocket 配置
type StreamConfig struct {
	// Enabled 是否启用流式输入（替代 RawPath）
	Enabled bool `yaml:"enabled"`
	// URL WebSocket 连接地址
	URL string `yaml:"url"`
	// PingIntervalMs 心跳间隔（毫秒）
	PingIntervalMs int `yaml:"ping_interval_ms"`
	// ReadTimeoutMs 读取超时（毫秒）
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
	// BufferRows 行缓冲通道容量
	BufferRows int `yaml:"buffer_rows"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// SpinsFile 自旋 CSV 文件名（Node,Signum）
	SpinsFile string `yaml:"spins_file"`
	// ReportEnabled 是否追加 JSONL 运行报告
	ReportEnabled bool `yaml:"report_enabled"`
	// ReportFile 运行报告文件名
	ReportFile string `yaml:"report_file"`
	// BufferSize 运行报告异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
	// GML 拓扑导出配置
	GML GMLConfig `yaml:"gml"`
}

// GMLConfig GML 拓扑导出配置
// 需要外部拓扑（网表 + 测试台使能）才能着色导出。
type GMLConfig struct {
	// Enabled 是否导出 GML
	Enabled bool `yaml:"enabled"`
	// NetworkPath 网表文件路径（XRO_/XCPL_ 实例）
	NetworkPath string `yaml:"network_path"`
	// TestbenchPath 测试台文件路径（V_EN_* 使能源）
	TestbenchPath string `yaml:"testbench_path"`
	// File 输出文件名
	File string `yaml:"file"`
}

// ArchiveConfig 运行归档配置
type ArchiveConfig struct {
	// Enabled 是否把每次解码运行写入 SQLite 归档
	Enabled bool `yaml:"enabled"`
	// DBPath SQLite 数据库路径
	DBPath string `yaml:"db_path"`
}

// WatchConfig 文件监视配置
type WatchConfig struct {
	// Enabled 是否监视波形表文件并在重写后自动重解码
	Enabled bool `yaml:"enabled"`
	// DebounceMs 去抖间隔（毫秒），仿真器分多次写文件时避免反复触发
	DebounceMs int `yaml:"debounce_ms"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "oscillator-spin-decoder"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// 解码默认值：阈值 0.5V，稳态窗口 6 个上升沿
	if c.Decode.ThresholdV == 0 {
		c.Decode.ThresholdV = 0.5
	}
	if c.Decode.Window == 0 {
		c.Decode.Window = 6
	}
	if c.Decode.Reference.Mode == "" {
		c.Decode.Reference.Mode = "first"
	}

	// 流式输入默认值
	if c.Input.Stream.PingIntervalMs == 0 {
		c.Input.Stream.PingIntervalMs = 15000
	}
	if c.Input.Stream.ReadTimeoutMs == 0 {
		c.Input.Stream.ReadTimeoutMs = 60000
	}
	if c.Input.Stream.BufferRows == 0 {
		c.Input.Stream.BufferRows = 4096
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.SpinsFile == "" {
		c.Output.SpinsFile = "signum_output.csv"
	}
	if c.Output.ReportFile == "" {
		c.Output.ReportFile = "decode_runs.jsonl"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 256
	}
	if c.Output.GML.File == "" {
		c.Output.GML.File = "network.gml"
	}

	// 归档默认值
	if c.Archive.DBPath == "" {
		c.Archive.DBPath = "decode_runs.db"
	}

	// 监视默认值
	if c.Watch.DebounceMs == 0 {
		c.Watch.DebounceMs = 500
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证解码参数
	if c.Decode.ThresholdV <= 0 {
		errs = append(errs, "decode.threshold_v: 阈值必须为正数")
	}
	if c.Decode.Window < 2 {
		errs = append(errs, "decode.window: 稳态窗口至少需要 2 个上升沿")
	}
	switch c.Decode.Reference.Mode {
	case "first":
		// 确定性模式，无需种子
	case "random":
		// 无种子的随机选择是进程级不确定状态，解码结果不可复现，直接拒绝
		if c.Decode.Reference.Seed == 0 {
			errs = append(errs, "decode.reference.seed: random 模式必须显式给出非零种子")
		}
	default:
		errs = append(errs, fmt.Sprintf("decode.reference.mode: 无效的模式 '%s'，有效值: first, random", c.Decode.Reference.Mode))
	}

	// 验证输入来源：批式与流式二选一
	if c.Input.Stream.Enabled {
		if c.Input.Stream.URL == "" {
			errs = append(errs, "input.stream.url: 启用流式输入时地址不能为空")
		}
	} else if c.Input.RawPath == "" {
		errs = append(errs, "input.raw_path: 未启用流式输入时必须给出波形表路径")
	}
	if c.Input.NodesPath == "" {
		errs = append(errs, "input.nodes_path: 通道名文件路径不能为空")
	}

	// 验证 GML 导出依赖的外部拓扑
	if c.Output.GML.Enabled {
		if c.Output.GML.NetworkPath == "" {
			errs = append(errs, "output.gml.network_path: 启用 GML 导出时网表路径不能为空")
		}
		if c.Output.GML.TestbenchPath == "" {
			errs = append(errs, "output.gml.testbench_path: 启用 GML 导出时测试台路径不能为空")
		}
	}

	// 监视模式只对文件输入有意义
	if c.Watch.Enabled && c.Input.Stream.Enabled {
		errs = append(errs, "watch.enabled: 监视模式与流式输入互斥")
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
