// Package spin 实现相位到离散自旋值的映射。
// spin = sign(cos(phase))：近同相 (+1)，近反相 (-1)。
package spin

import (
	"math"

	"oscillator-spin-decoder/internal/core/model"
)

// Discretize 将相对相位映射为自旋值
// cos(phase) >= 0 返回 SpinUp，否则返回 SpinDown。
// 相位恰为 ±90°（cos=0）在数学上不可判定，本实现统一判给 SpinUp，
// 使同相扇区为半开区间 [-90°, +90°]，判定始终完备。
// 无效相位传播为 SpinUndefined。
func Discretize(p model.PhaseEstimate) model.Spin {
	if !p.Defined {
		return model.SpinUndefined
	}
	if math.Cos(p.Degrees*math.Pi/180) >= 0 {
		return model.SpinUp
	}
	return model.SpinDown
}
