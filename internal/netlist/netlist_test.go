// Package netlist 网表与测试台合成测试
package netlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteNetwork_VerifyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 4, 5))

	// 合成的网表必须通过自己的校验器
	require.NoError(t, Verify(bytes.NewReader(buf.Bytes()), 4, 5))
}

func TestWriteNetwork_Content(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 2, 2))
	out := buf.String()

	assert.Contains(t, out, ".subckt "+DefaultSubcktName)
	assert.Contains(t, out, ".ends "+DefaultSubcktName)
	for _, inc := range []string{"ptm_45nm_lp.l", "ring_osc.subckt", "coupling.subckt"} {
		assert.Contains(t, out, inc)
	}

	// 每个格子一个 RING_OSC 实例
	assert.Contains(t, out, "XRO_0_0 N_0_0_1 N_0_0_2 N_0_0_3 N_0_0_4 N_0_0_5 N_0_0_6 N_0_0_7 EN_RO_0_0 vdd gnd RING_OSC")
	assert.Contains(t, out, "XRO_1_1")

	// 耦合器按 N1 → N3 接线
	assert.Contains(t, out, "N_0_0_1 N_0_1_3 vdd gnd COUPLING")
}

func TestWriteNetwork_InvalidSize(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteNetwork(&buf, 0, 3))
	assert.Error(t, WriteNetwork(&buf, 3, -1))
}

func TestVerify_DetectsMissingCoupling(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 3, 3))

	// 删掉一条耦合实例行
	lines := strings.Split(buf.String(), "\n")
	var mutated []string
	removed := false
	for _, line := range lines {
		if !removed && strings.HasPrefix(line, "XCPL_") {
			removed = true
			continue
		}
		mutated = append(mutated, line)
	}
	require.True(t, removed)

	err := Verify(strings.NewReader(strings.Join(mutated, "\n")), 3, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "耦合")
}

func TestVerify_DetectsWrongInstanceCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 3, 3))

	// 按 2x3 网格校验 3x3 网表：实例数不符
	err := Verify(bytes.NewReader(buf.Bytes()), 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "实例数")
}

func TestVerify_DetectsWrongWiring(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 2, 2))

	// 把一条耦合器的 N3 端改接 N2
	mutated := strings.Replace(buf.String(), "N_0_1_3 vdd gnd COUPLING", "N_0_1_2 vdd gnd COUPLING", 1)
	require.NotEqual(t, buf.String(), mutated)

	err := Verify(strings.NewReader(mutated), 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "接线")
}

func TestWriteTestbench_EnablesMatchNetwork(t *testing.T) {
	net, err := Generate(GenerateOptions{Rows: 4, Cols: 4, Nodes: 8, Seed: 9})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTestbench(&buf, net, TestbenchOptions{NetworkFile: "ro_network.subckt"}))
	out := buf.String()

	assert.Contains(t, out, ".include \"ro_network.subckt\"")
	assert.Contains(t, out, "Xdut ")
	assert.Contains(t, out, "tran 0.1ns 2us uic")
	assert.Contains(t, out, "wrdata output_nodes.csv time ")
	assert.Contains(t, out, "VDD vdd gnd 1")

	// 使能源可被解析器原样读回
	enables, err := ParseEnables(strings.NewReader(out))
	require.NoError(t, err)

	// 占用格子的 RO 使能为 1，空格子为 0
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			_, occupied := net.CellNode(Cell{r, c})
			want := 0
			if occupied {
				want = 1
			}
			assert.Equal(t, want, enables.RO[Cell{r, c}], "RO(%d,%d)", r, c)
		}
	}

	// 图中的每条边对应一个启用的耦合器
	for _, e := range net.Edges() {
		a := net.Placement[e[0]]
		b := net.Placement[e[1]]
		// 强制接入的非相邻边没有物理耦合器，跳过
		adjacent := false
		for _, nb := range HexNeighbors(4, 4, a.Row, a.Col) {
			if nb == b {
				adjacent = true
				break
			}
		}
		if adjacent {
			assert.True(t, enables.CouplerOn(a, b), "边 %v 应启用耦合器", e)
		}
	}
}

func TestWriteTestbench_CustomOptions(t *testing.T) {
	net, err := Generate(GenerateOptions{Rows: 3, Cols: 3, Nodes: 4, Seed: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTestbench(&buf, net, TestbenchOptions{
		NetworkFile: "net.subckt",
		OutputCSV:   "run7.csv",
		TranStep:    "0.05ns",
		TranStop:    "5us",
		SupplyV:     1.2,
	}))
	out := buf.String()

	assert.Contains(t, out, "tran 0.05ns 5us uic")
	assert.Contains(t, out, "wrdata run7.csv time ")
	assert.Contains(t, out, "VDD vdd gnd 1.2")
}

func TestWriteTestbench_RequiresNetworkFile(t *testing.T) {
	net, err := Generate(GenerateOptions{Rows: 3, Cols: 3, Nodes: 4, Seed: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, WriteTestbench(&buf, net, TestbenchOptions{}))
	assert.Error(t, WriteTestbench(&buf, nil, TestbenchOptions{NetworkFile: "x"}))
}

func TestParseNetwork(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNetwork(&buf, 3, 3))

	topo, err := ParseNetwork(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Len(t, topo.ROPositions, 9)
	assert.Equal(t, len(AllCouplingPairs(3, 3)), len(topo.Couplings))
}

func TestParseEnables_IgnoresUnrelatedLines(t *testing.T) {
	input := strings.Join([]string{
		"* comment",
		"VDD vdd gnd 1",
		"V_EN_RO_0_0 EN_RO_0_0 gnd 1",
		"V_EN_RO_0_1 EN_RO_0_1 gnd 0",
		"V_EN_C_0_0__0_1 EN_C_0_0__0_1 gnd 1",
		".control",
	}, "\n")

	enables, err := ParseEnables(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, enables.RO[Cell{0, 0}])
	assert.Equal(t, 0, enables.RO[Cell{0, 1}])
	assert.True(t, enables.CouplerOn(Cell{0, 0}, Cell{0, 1}))
	// 反方向查询同样命中
	assert.True(t, enables.CouplerOn(Cell{0, 1}, Cell{0, 0}))
	assert.False(t, enables.CouplerOn(Cell{1, 0}, Cell{1, 1}))
}
