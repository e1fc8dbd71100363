// Package gml 拓扑导出测试
package gml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oscillator-spin-decoder/internal/core/model"
	"oscillator-spin-decoder/internal/netlist"
)

func sampleTopology() (*netlist.Topology, *netlist.Enables) {
	topo := &netlist.Topology{
		ROPositions: []netlist.Cell{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1},
		},
		Couplings: []netlist.CouplingPair{
			{R1: 0, C1: 0, R2: 0, C2: 1},
			{R1: 0, C1: 1, R2: 1, C2: 0},
			{R1: 1, C1: 0, R2: 1, C2: 1},
		},
	}
	enables := &netlist.Enables{
		RO: map[netlist.Cell]int{
			{Row: 0, Col: 0}: 1,
			{Row: 0, Col: 1}: 1,
			{Row: 1, Col: 0}: 1,
			{Row: 1, Col: 1}: 0, // 未使能，必须不出现在导出中
		},
		Coupler: map[netlist.CouplingPair]int{
			{R1: 0, C1: 0, R2: 0, C2: 1}: 1,
			{R1: 0, C1: 1, R2: 1, C2: 0}: 1,
			{R1: 1, C1: 0, R2: 1, C2: 1}: 1, // 端点未使能，边也必须过滤
		},
	}
	return topo, enables
}

func sampleResults() *model.ResultMapping {
	return model.NewResultMapping([]model.NodeResult{
		{Node: netlist.ProbeNode(0, 0), Spin: model.SpinUp, Phase: model.NewPhase(0), Crossings: 10},
		{Node: netlist.ProbeNode(0, 1), Spin: model.SpinDown, Phase: model.NewPhase(180), Crossings: 10},
		{Node: netlist.ProbeNode(1, 0), Spin: model.SpinUndefined, Crossings: 2},
	})
}

func TestWrite(t *testing.T) {
	topo, enables := sampleTopology()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, topo, enables, sampleResults()))
	out := buf.String()

	assert.Contains(t, out, "graph [")
	assert.Contains(t, out, "directed 0")

	// 三个使能节点，各带 signum 属性
	assert.Equal(t, 3, strings.Count(out, "node ["))
	assert.Contains(t, out, "signum 1")
	assert.Contains(t, out, "signum -1")
	// 无效自旋写哨兵值
	assert.Contains(t, out, "signum -999")

	// 未使能的 (1,1) 不出现
	assert.NotContains(t, out, "label \"1,1\"")

	// 只有两条边：端点均使能的耦合
	assert.Equal(t, 2, strings.Count(out, "edge ["))
}

func TestWrite_NodeAttributes(t *testing.T) {
	topo, enables := sampleTopology()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, topo, enables, sampleResults()))
	out := buf.String()

	// id 按 (row, col) 排序分配，label 为网格坐标
	assert.Contains(t, out, "label \"0,0\"")
	assert.Contains(t, out, "label \"0,1\"")
	assert.Contains(t, out, "label \"1,0\"")
	assert.Contains(t, out, "    r 0\n")
	assert.Contains(t, out, "    c 1\n")
	// 六角布局坐标
	assert.Contains(t, out, "    x ")
	assert.Contains(t, out, "    y ")
}

func TestWrite_MissingChannelGetsSentinel(t *testing.T) {
	topo, enables := sampleTopology()

	// 结果映射缺少 (1,0)：导出时同样写哨兵值
	partial := model.NewResultMapping([]model.NodeResult{
		{Node: netlist.ProbeNode(0, 0), Spin: model.SpinUp, Phase: model.NewPhase(0), Crossings: 10},
		{Node: netlist.ProbeNode(0, 1), Spin: model.SpinDown, Phase: model.NewPhase(180), Crossings: 10},
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, topo, enables, partial))
	assert.Contains(t, buf.String(), "signum -999")
}

func TestWrite_NilInputs(t *testing.T) {
	topo, enables := sampleTopology()

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, nil, enables, sampleResults()))
	assert.Error(t, Write(&buf, topo, nil, sampleResults()))
	assert.Error(t, Write(&buf, topo, enables, nil))
}
