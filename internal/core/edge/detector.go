// Package edge 实现波形上升沿检测。
// 对每对相邻采样点做阈值穿越判定，并用线性插值求出亚采样精度的穿越时刻。
// 只统计上升穿越：每个上升沿对应振荡器的一个 "tick"，下降沿按设计忽略。
package edge

import (
	"oscillator-spin-decoder/internal/core/model"
)

// DefaultThreshold 默认穿越阈值（V）
// 取标称逻辑高电平（1.0V 供电）的一半。
const DefaultThreshold = 0.5

// Detector 上升沿检测器
type Detector struct {
	// threshold 穿越阈值（V）
	threshold float64
}

// NewDetector 创建上升沿检测器
// 参数 threshold: 穿越阈值，<=0 时使用 DefaultThreshold
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Threshold 获取当前阈值
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect 检测一个通道的全部上升沿穿越时刻
// 对满足 V[i] < threshold <= V[i+1] 的相邻采样对，按线性插值计算穿越时刻:
//
//	t = T[i] + (threshold - V[i]) * (T[i+1] - T[i]) / (V[i+1] - V[i])
//
// 参数 times: 采样时间序列（非递减）
// 参数 volts: 采样电压序列，与 times 等长
// 返回: 严格递增的穿越时刻序列，可能为空
func (d *Detector) Detect(times, volts []float64) model.CrossingSet {
	n := len(times)
	if len(volts) < n {
		n = len(volts)
	}

	var out model.CrossingSet
	for i := 0; i+1 < n; i++ {
		lo, hi := volts[i], volts[i+1]
		if !(lo < d.threshold && d.threshold <= hi) {
			continue
		}
		// lo < threshold <= hi 保证 hi-lo > 0，除法安全
		t := times[i] + (d.threshold-lo)*(times[i+1]-times[i])/(hi-lo)
		out = append(out, t)
	}
	return out
}

// DetectChannel 检测单个通道的上升沿
// Detect 的便捷封装。
func (d *Detector) DetectChannel(ch *model.Channel) model.CrossingSet {
	if ch == nil {
		return nil
	}
	return d.Detect(ch.Time, ch.Voltages)
}
