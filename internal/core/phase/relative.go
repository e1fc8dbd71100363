// Package phase 实现参考通道选择与相对相位计算。
package phase

import (
	"math"

	"oscillator-spin-decoder/internal/core/model"
)

// Calculator 相对相位计算器
// 以参考通道的周期为统一时钟，比较两通道稳态窗口的最后上升沿时刻。
// 刻意不使用各通道自身的周期估计，避免逐通道周期噪声造成漂移。
type Calculator struct {
	// window 稳态窗口大小
	window int
}

// NewCalculator 创建相对相位计算器
// 参数 window: 稳态窗口大小
func NewCalculator(window int) *Calculator {
	return &Calculator{window: window}
}

// Relative 计算通道相对参考通道的相位
// 原始相位差 dphi = (t_node - t_ref) / period * 360，再包裹到 (-180, 180]。
// 参数 node: 待解通道的上升沿序列
// 参数 ref: 参考通道的上升沿序列
// 参数 period: 参考通道的周期估计（严格为正）
// 返回: 任一序列上升沿不足 window 个时返回无效相位（单通道级，不致命）
func (c *Calculator) Relative(node, ref model.CrossingSet, period float64) model.PhaseEstimate {
	if node.Count() < c.window || ref.Count() < c.window || period <= 0 {
		return model.UndefinedPhase()
	}

	tNode, _ := node.Last()
	tRef, _ := ref.Last()

	dphi := (tNode - tRef) / period * 360
	return model.NewPhase(WrapDegrees(dphi))
}

// WrapDegrees 将任意相位差（度）包裹到 (-180, 180] 区间
// 公式: ((deg + 180) mod 360) - 180，mod 结果归一化为非负；
// 恰好落在 -180 的值归入 +180，保证区间左开右闭。
func WrapDegrees(deg float64) float64 {
	m := math.Mod(deg+180, 360)
	if m < 0 {
		m += 360
	}
	w := m - 180
	if w == -180 {
		return 180
	}
	return w
}
