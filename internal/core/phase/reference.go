// Package phase 实现参考通道选择与相对相位计算。
// 所有通道的相位都以同一个参考通道的最后上升沿和周期为基准，
// 保证全体通道共享一致的时间基。
package phase

import (
	"errors"
	"fmt"
	"math/rand"

	"oscillator-spin-decoder/internal/core/model"
)

// ReferenceMode 参考通道选择模式
type ReferenceMode string

const (
	// ReferenceFirst 选择输入顺序中第一个有效通道（确定性，默认）
	ReferenceFirst ReferenceMode = "first"
	// ReferenceRandom 在有效通道中均匀随机选择
	// 必须配合显式种子使用，否则解码结果不可复现。
	ReferenceRandom ReferenceMode = "random"
)

// ErrNoValidReference 没有任何通道满足参考通道前置条件
// 批级致命错误：没有相位基线，整次解码中止。
var ErrNoValidReference = errors.New("没有有效的参考通道")

// Selector 参考通道选择器
// 有效性判定：通道的上升沿数量不低于稳态窗口大小。
type Selector struct {
	// mode 选择模式
	mode ReferenceMode
	// window 稳态窗口大小（有效性判定门槛）
	window int
	// rng 随机源（仅 ReferenceRandom 模式使用）
	rng *rand.Rand
}

// NewSelector 创建参考通道选择器
// 参数 mode: 选择模式，空值按 ReferenceFirst 处理
// 参数 window: 稳态窗口大小
// 参数 seed: 随机种子（仅 ReferenceRandom 模式使用）
func NewSelector(mode ReferenceMode, window int, seed int64) *Selector {
	if mode == "" {
		mode = ReferenceFirst
	}
	s := &Selector{mode: mode, window: window}
	if mode == ReferenceRandom {
		s.rng = rand.New(rand.NewSource(seed))
	}
	return s
}

// Valid 判断单个通道是否满足参考通道前置条件
func (s *Selector) Valid(crossings model.CrossingSet) bool {
	return crossings.Count() >= s.window
}

// Select 在所有通道中选出参考通道
// 参数 crossings: 按输入顺序排列的各通道上升沿序列
// 返回: 参考通道在输入中的下标；无有效通道时返回 ErrNoValidReference
func (s *Selector) Select(crossings []model.CrossingSet) (int, error) {
	var valid []int
	for i, cs := range crossings {
		if s.Valid(cs) {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return -1, fmt.Errorf("%w: %d 个通道均不足 %d 个上升沿", ErrNoValidReference, len(crossings), s.window)
	}

	if s.mode == ReferenceRandom {
		return valid[s.rng.Intn(len(valid))], nil
	}
	return valid[0], nil
}
