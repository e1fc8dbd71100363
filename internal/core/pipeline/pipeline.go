// Package pipeline 实现解码管线编排。
// 串联边沿检测、参考通道选择、周期估计、相对相位计算与自旋离散化，
// 对全部通道产出一个有序的 node→spin 映射。
//
// 失败策略：
//   - 单通道上升沿不足只把该通道标为无效，其余通道照常解码；
//   - 没有任何有效参考通道时整次解码中止（ErrNoValidReference）。
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"oscillator-spin-decoder/internal/core/edge"
	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/core/period"
	"oscillator-spin-decoder/internal/core/phase"
	"oscillator-spin-decoder/internal/core/spin"
)

// Options 管线参数
type Options struct {
	// Threshold 上升沿判定阈值（V），<=0 使用默认值
	Threshold float64
	// Window 稳态窗口大小（上升沿个数），<2 使用默认值
	Window int
	// ReferenceMode 参考通道选择模式
	ReferenceMode phase.ReferenceMode
	// Seed 随机参考模式的种子
	Seed int64
}

// Pipeline 解码管线
// 纯顺序单遍计算：通道数量为数十到低数百，逐通道解码的总开销
// 受 样本数×通道数 约束，无需并发。
type Pipeline struct {
	detector  *edge.Detector
	estimator *period.Estimator
	selector  *phase.Selector
	calc      *phase.Calculator
	logger    *zap.Logger
}

// New 创建解码管线
// 参数 opts: 管线参数
// 参数 logger: 日志记录器
func New(opts Options, logger *zap.Logger) *Pipeline {
	if opts.Window < 2 {
		opts.Window = period.DefaultWindow
	}
	return &Pipeline{
		detector:  edge.NewDetector(opts.Threshold),
		estimator: period.NewEstimator(opts.Window),
		selector:  phase.NewSelector(opts.ReferenceMode, opts.Window, opts.Seed),
		calc:      phase.NewCalculator(opts.Window),
		logger:    logger.Named("pipeline"),
	}
}

// Decode 解码一批通道波形
// 参数 channels: 按输入顺序排列的通道波形
// 返回: 覆盖每个输入通道的有序映射与运行摘要；
// 无有效参考通道时返回错误，映射与摘要为 nil。
func (p *Pipeline) Decode(channels []model.Channel) (*model.ResultMapping, *model.Report, error) {
	if len(channels) == 0 {
		return nil, nil, fmt.Errorf("没有输入通道")
	}

	// 每通道独立检测上升沿
	crossings := make([]model.CrossingSet, len(channels))
	for i := range channels {
		crossings[i] = p.detector.DetectChannel(&channels[i])
	}

	// 参考通道只选一次，周期也只估计一次，全体通道共享
	refIdx, err := p.selector.Select(crossings)
	if err != nil {
		return nil, nil, err
	}
	refName := channels[refIdx].Name

	refPeriod, err := p.estimator.Estimate(crossings[refIdx])
	if err != nil {
		// Select 已保证参考通道上升沿充足，到这里只剩数据污染一种可能
		return nil, nil, fmt.Errorf("参考通道 %s 周期估计失败: %w", refName, err)
	}

	p.logger.Info("参考通道已选定",
		zap.String("node", refName),
		zap.Float64("period", refPeriod),
		zap.Int("crossings", crossings[refIdx].Count()))

	entries := make([]model.NodeResult, len(channels))
	for i := range channels {
		ph := p.calc.Relative(crossings[i], crossings[refIdx], refPeriod)
		entries[i] = model.NodeResult{
			Node:      channels[i].Name,
			Spin:      spin.Discretize(ph),
			Phase:     ph,
			Crossings: crossings[i].Count(),
		}
		if !ph.Defined {
			p.logger.Warn("通道上升沿不足，自旋置为无效",
				zap.String("node", channels[i].Name),
				zap.Int("crossings", crossings[i].Count()))
		}
	}

	mapping := model.NewResultMapping(entries)
	report := &model.Report{
		ReferenceNode:   refName,
		ReferencePeriod: refPeriod,
		Channels:        mapping.Len(),
		Defined:         mapping.DefinedCount(),
		UndefinedNodes:  mapping.UndefinedNodes(),
	}
	return mapping, report, nil
}
