// Package edge 上升沿检测属性测试
package edge

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// **Feature: oscillator-spin-decoder, Property 1: Crossing Monotonicity**

func TestDetector_Crossings_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("方波的穿越时刻严格递增且落在采样区间内", prop.ForAll(
		func(periods int, threshold float64) bool {
			d := NewDetector(threshold)

			// 合成 periods 个周期的 0/1 方波，周期 2
			var times, volts []float64
			for i := 0; i < periods*2; i++ {
				times = append(times, float64(i))
				if i%2 == 0 {
					volts = append(volts, 0)
				} else {
					volts = append(volts, 1)
				}
			}

			got := d.Detect(times, volts)
			if got.Count() != periods {
				return false
			}
			for i, tc := range got {
				if tc < times[0] || tc > times[len(times)-1] {
					return false
				}
				if i > 0 && tc <= got[i-1] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.Float64Range(0.05, 0.95),
	))

	properties.Property("单调下降的波形永远没有上升穿越", prop.ForAll(
		func(n int, start float64) bool {
			d := NewDetector(0.5)

			var times, volts []float64
			for i := 0; i < n; i++ {
				times = append(times, float64(i))
				volts = append(volts, start-float64(i)*0.1)
			}
			return d.Detect(times, volts).Count() == 0
		},
		gen.IntRange(2, 100),
		gen.Float64Range(0.6, 10),
	))

	properties.Property("阈值平移不改变穿越数量（满摆幅方波）", prop.ForAll(
		func(periods int, th1, th2 float64) bool {
			var times, volts []float64
			for i := 0; i < periods*2; i++ {
				times = append(times, float64(i))
				if i%2 == 0 {
					volts = append(volts, 0)
				} else {
					volts = append(volts, 1)
				}
			}

			n1 := NewDetector(th1).Detect(times, volts).Count()
			n2 := NewDetector(th2).Detect(times, volts).Count()
			return n1 == n2
		},
		gen.IntRange(1, 30),
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(0.05, 0.95),
	))

	properties.TestingRun(t)
}
