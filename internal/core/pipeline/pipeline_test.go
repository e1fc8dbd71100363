// Package pipeline 解码管线测试
package pipeline

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/core/phase"
)

// squareChannel 按给定上升沿时刻合成方波通道
// 每个上升沿由 (t-0.25, 0V) → (t+0.25, 1V) 的采样对产生，
// 线性插值后的穿越时刻恰好等于 t。
func squareChannel(name string, risings []float64) model.Channel {
	var times, volts []float64
	for i, tr := range risings {
		if i == 0 {
			times = append(times, tr-0.5)
			volts = append(volts, 0)
		}
		times = append(times, tr-0.25, tr+0.25, tr+0.75)
		volts = append(volts, 0, 1, 0)
	}
	return model.Channel{Name: name, Time: times, Voltages: volts}
}

// risingsEnding 生成周期 period、最后上升沿位于 last 的 n 个上升沿时刻
func risingsEnding(last, period float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = last - float64(n-1-i)*period
	}
	return out
}

func newTestPipeline(mode phase.ReferenceMode, seed int64) *Pipeline {
	return New(Options{
		Threshold:     0.5,
		Window:        6,
		ReferenceMode: mode,
		Seed:          seed,
	}, zap.NewNop())
}

func TestPipeline_Decode_EndToEnd(t *testing.T) {
	p := newTestPipeline(phase.ReferenceFirst, 0)

	channels := []model.Channel{
		squareChannel("A", risingsEnding(100, 10, 10)), // 参考通道
		squareChannel("B", risingsEnding(100, 10, 10)), // 与参考同相
		squareChannel("C", risingsEnding(95, 10, 10)),  // 偏移半个周期
		squareChannel("D", risingsEnding(100, 10, 3)),  // 上升沿不足
	}

	mapping, report, err := p.Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if report.ReferenceNode != "A" {
		t.Fatalf("ReferenceNode=%s, want A", report.ReferenceNode)
	}
	if math.Abs(report.ReferencePeriod-10) > 1e-9 {
		t.Fatalf("ReferencePeriod=%v, want 10", report.ReferencePeriod)
	}
	if report.Channels != 4 || report.Defined != 3 {
		t.Fatalf("Channels=%d Defined=%d, want 4/3", report.Channels, report.Defined)
	}

	wantSpins := map[string]model.Spin{
		"A": model.SpinUp,
		"B": model.SpinUp,
		"C": model.SpinDown,
		"D": model.SpinUndefined,
	}
	for node, want := range wantSpins {
		res, ok := mapping.Get(node)
		if !ok {
			t.Fatalf("映射缺少通道 %s", node)
		}
		if res.Spin != want {
			t.Fatalf("%s: Spin=%v, want %v（phase=%+v）", node, res.Spin, want, res.Phase)
		}
	}

	// 无效通道必须显式出现在映射与摘要中
	if got := mapping.UndefinedNodes(); len(got) != 1 || got[0] != "D" {
		t.Fatalf("UndefinedNodes=%v, want [D]", got)
	}
	if len(report.UndefinedNodes) != 1 || report.UndefinedNodes[0] != "D" {
		t.Fatalf("摘要 UndefinedNodes=%v, want [D]", report.UndefinedNodes)
	}
}

func TestPipeline_Decode_OrderPreserved(t *testing.T) {
	p := newTestPipeline(phase.ReferenceFirst, 0)

	channels := []model.Channel{
		squareChannel("N_0_0_1", risingsEnding(100, 10, 10)),
		squareChannel("N_0_1_1", risingsEnding(95, 10, 10)),
		squareChannel("N_1_0_1", risingsEnding(100, 10, 10)),
	}

	mapping, _, err := p.Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	entries := mapping.Entries()
	for i, ch := range channels {
		if entries[i].Node != ch.Name {
			t.Fatalf("第 %d 项=%s, want %s（必须保持输入顺序）", i, entries[i].Node, ch.Name)
		}
	}
}

func TestPipeline_Decode_Deterministic(t *testing.T) {
	channels := []model.Channel{
		squareChannel("A", risingsEnding(100, 10, 10)),
		squareChannel("B", risingsEnding(97, 10, 10)),
		squareChannel("C", risingsEnding(93, 10, 10)),
	}

	first, _, err := newTestPipeline(phase.ReferenceFirst, 0).Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, _, err := newTestPipeline(phase.ReferenceFirst, 0).Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	a, b := first.Entries(), second.Entries()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("同一输入两次解码结果不一致: %+v != %+v", a[i], b[i])
		}
	}
}

func TestPipeline_Decode_ReferenceSwitchFlipsGlobalSign(t *testing.T) {
	// 参考通道换成反相通道后，全体自旋整体翻转，
	// 但任意两通道的相对取向（自旋乘积）不变。
	inPhase := risingsEnding(100, 10, 10)
	antiPhase := risingsEnding(95, 10, 10)

	orig := []model.Channel{
		squareChannel("A", inPhase),
		squareChannel("B", antiPhase),
		squareChannel("C", inPhase),
	}
	reordered := []model.Channel{
		squareChannel("B", antiPhase),
		squareChannel("A", inPhase),
		squareChannel("C", inPhase),
	}

	m1, _, err := newTestPipeline(phase.ReferenceFirst, 0).Decode(orig)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m2, _, err := newTestPipeline(phase.ReferenceFirst, 0).Decode(reordered)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}, {"A", "C"}} {
		r1a, _ := m1.Get(pair[0])
		r1b, _ := m1.Get(pair[1])
		r2a, _ := m2.Get(pair[0])
		r2b, _ := m2.Get(pair[1])
		if int(r1a.Spin)*int(r1b.Spin) != int(r2a.Spin)*int(r2b.Spin) {
			t.Fatalf("%s×%s 的自旋乘积随参考切换而改变", pair[0], pair[1])
		}
	}
}

func TestPipeline_Decode_NoValidReference(t *testing.T) {
	p := newTestPipeline(phase.ReferenceFirst, 0)

	channels := []model.Channel{
		squareChannel("A", risingsEnding(100, 10, 3)),
		squareChannel("B", risingsEnding(100, 10, 2)),
	}

	_, _, err := p.Decode(channels)
	if !errors.Is(err, phase.ErrNoValidReference) {
		t.Fatalf("err=%v, want ErrNoValidReference", err)
	}
}

func TestPipeline_Decode_EmptyInput(t *testing.T) {
	p := newTestPipeline(phase.ReferenceFirst, 0)
	if _, _, err := p.Decode(nil); err == nil {
		t.Fatalf("空输入应返回错误")
	}
}

func TestPipeline_Decode_RandomReferenceDeterministicBySeed(t *testing.T) {
	channels := []model.Channel{
		squareChannel("A", risingsEnding(100, 10, 10)),
		squareChannel("B", risingsEnding(95, 10, 10)),
		squareChannel("C", risingsEnding(100, 10, 10)),
	}

	_, r1, err := newTestPipeline(phase.ReferenceRandom, 7).Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	_, r2, err := newTestPipeline(phase.ReferenceRandom, 7).Decode(channels)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r1.ReferenceNode != r2.ReferenceNode {
		t.Fatalf("同一种子应选出同一参考通道: %s != %s", r1.ReferenceNode, r2.ReferenceNode)
	}
}
