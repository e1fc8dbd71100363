// Package model 定义解码器中使用的核心数据结构。
package model

// Spin 解码出的 Ising 自旋值
type Spin int8

const (
	// SpinUndefined 无法解出自旋（上升沿不足）
	// CSV 输出中以 NaN 哨兵值表示，绝不省略该通道。
	SpinUndefined Spin = 0
	// SpinUp 自旋 +1（与参考通道近同相）
	SpinUp Spin = 1
	// SpinDown 自旋 -1（与参考通道近反相）
	SpinDown Spin = -1
)

// Defined 判断自旋是否有效
func (s Spin) Defined() bool {
	return s == SpinUp || s == SpinDown
}

// String 获取自旋的输出表示
// 有效自旋输出 "1" / "-1"，无效自旋输出哨兵值 "NaN"（与下游加载器约定一致）。
func (s Spin) String() string {
	switch s {
	case SpinUp:
		return "1"
	case SpinDown:
		return "-1"
	default:
		return "NaN"
	}
}
