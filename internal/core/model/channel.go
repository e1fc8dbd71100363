// Package model 定义解码器中使用的核心数据结构。
// 包含通道波形、上升沿序列、相位估计、自旋值等核心类型。
package model

// Channel 单个振荡器的采样波形
// Time 与 Voltages 等长，Time 非递减；多个通道通常共享同一条时间轴切片。
type Channel struct {
	// Name 通道标识（探测节点名，如 N_2_3_1）
	Name string
	// Time 采样时间序列（非递减）
	Time []float64
	// Voltages 采样电压序列，与 Time 一一对应
	Voltages []float64
}

// Samples 获取采样点数量
func (c *Channel) Samples() int {
	return len(c.Time)
}

// CrossingSet 一个通道的上升沿穿越时刻序列
// 由边沿检测器产生，严格递增，可能为空。
type CrossingSet []float64

// Count 获取上升沿数量
func (s CrossingSet) Count() int {
	return len(s)
}

// Last 获取最后一个上升沿时刻
// 序列为空时返回 0 和 false。
func (s CrossingSet) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// Tail 获取稳态窗口（末尾 n 个上升沿）
// 上升沿数量不足 n 时返回 nil 和 false；返回的切片与原序列共享底层数组，应视为只读。
func (s CrossingSet) Tail(n int) (CrossingSet, bool) {
	if n <= 0 || len(s) < n {
		return nil, false
	}
	return s[len(s)-n:], true
}

// Intervals 计算相邻上升沿之间的间隔序列
// n 个上升沿产生 n-1 个间隔；序列严格递增时所有间隔为正。
func (s CrossingSet) Intervals() []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		out[i-1] = s[i] - s[i-1]
	}
	return out
}

// PhaseEstimate 相对相位估计（度）
// Defined 为 false 表示该通道无法解出相位（上升沿不足）。
// Defined 为 true 时 Degrees 已包裹到 (-180, 180] 区间。
type PhaseEstimate struct {
	// Degrees 相对相位（度），区间 (-180, 180]
	Degrees float64
	// Defined 相位是否有效
	Defined bool
}

// UndefinedPhase 创建无效相位估计
func UndefinedPhase() PhaseEstimate {
	return PhaseEstimate{}
}

// NewPhase 创建有效相位估计
// 参数 degrees: 已包裹的相位值（度）
func NewPhase(degrees float64) PhaseEstimate {
	return PhaseEstimate{Degrees: degrees, Defined: true}
}
