// Package period 实现振荡周期估计。
// 取稳态窗口（末尾若干个上升沿）内的相邻间隔，返回其中位数；
// 中位数对单周期抖动离群值鲁棒，优于均值。
package period

import (
	"errors"
	"fmt"
	"sort"

	"oscillator-spin-decoder/internal/core/model"
)

// DefaultWindow 默认稳态窗口大小（上升沿个数）
// 取末尾 6 个上升沿以抑制启动瞬态偏差。
const DefaultWindow = 6

// ErrInsufficientEdges 上升沿数量不足以构成稳态窗口
// 单通道级错误：该通道的自旋置为无效，不影响其余通道。
var ErrInsufficientEdges = errors.New("上升沿数量不足")

// Estimator 振荡周期估计器
type Estimator struct {
	// window 稳态窗口大小（上升沿个数）
	window int
}

// NewEstimator 创建周期估计器
// 参数 window: 稳态窗口大小，<2 时使用 DefaultWindow
func NewEstimator(window int) *Estimator {
	if window < 2 {
		window = DefaultWindow
	}
	return &Estimator{window: window}
}

// Window 获取稳态窗口大小
func (e *Estimator) Window() int {
	return e.window
}

// Estimate 估计一个通道的振荡周期
// 取末尾 window 个上升沿，计算 window-1 个相邻间隔的中位数。
// 参数 crossings: 该通道的上升沿序列（严格递增）
// 返回: 周期估计（严格为正），上升沿不足时返回 ErrInsufficientEdges
func (e *Estimator) Estimate(crossings model.CrossingSet) (float64, error) {
	tail, ok := crossings.Tail(e.window)
	if !ok {
		return 0, fmt.Errorf("%w: 需要 %d 个，实际 %d 个", ErrInsufficientEdges, e.window, crossings.Count())
	}

	t := median(tail.Intervals())
	if t <= 0 {
		// 上升沿严格递增时不可能发生；出现则说明上游数据被污染
		return 0, fmt.Errorf("周期估计非正: %v", t)
	}
	return t, nil
}

// median 计算间隔序列的中位数
// 偶数个样本取中间两个的均值。
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
