// Package model 定义解码器中使用的核心数据结构。
package model

// NodeResult 单个通道的解码结果
type NodeResult struct {
	// Node 通道标识
	Node string
	// Spin 解码出的自旋值（可能为 SpinUndefined）
	Spin Spin
	// Phase 相对参考通道的相位估计
	Phase PhaseEstimate
	// Crossings 该通道检出的上升沿数量
	Crossings int
}

// ResultMapping 通道到自旋值的有序不可变映射
// 由管线一次性构建并整体返回，顺序与输入通道顺序一致；
// 无效通道同样包含在内（显式标记，绝不省略）。
type ResultMapping struct {
	entries []NodeResult
	index   map[string]int
}

// NewResultMapping 由解码结果列表构建映射
// 参数 entries: 按输入通道顺序排列的解码结果
func NewResultMapping(entries []NodeResult) *ResultMapping {
	m := &ResultMapping{
		entries: make([]NodeResult, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(m.entries, entries)
	for i, e := range m.entries {
		m.index[e.Node] = i
	}
	return m
}

// Len 获取通道数量
func (m *ResultMapping) Len() int {
	return len(m.entries)
}

// Entries 获取全部解码结果（按输入顺序）
// 返回副本，调用方可自由修改。
func (m *ResultMapping) Entries() []NodeResult {
	out := make([]NodeResult, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get 按通道名查找解码结果
func (m *ResultMapping) Get(node string) (NodeResult, bool) {
	i, ok := m.index[node]
	if !ok {
		return NodeResult{}, false
	}
	return m.entries[i], true
}

// UndefinedNodes 获取所有无效通道的名字（按输入顺序）
func (m *ResultMapping) UndefinedNodes() []string {
	var out []string
	for _, e := range m.entries {
		if !e.Spin.Defined() {
			out = append(out, e.Node)
		}
	}
	return out
}

// DefinedCount 获取有效通道数量
func (m *ResultMapping) DefinedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Spin.Defined() {
			n++
		}
	}
	return n
}

// Report 一次解码运行的摘要
// 供日志、JSONL 运行报告与归档使用。
type Report struct {
	// ReferenceNode 选中的参考通道名
	ReferenceNode string `json:"reference_node"`
	// ReferencePeriod 参考通道的振荡周期估计（与输入时间轴同单位）
	ReferencePeriod float64 `json:"reference_period"`
	// Channels 输入通道总数
	Channels int `json:"channels"`
	// Defined 解出有效自旋的通道数
	Defined int `json:"defined"`
	// UndefinedNodes 无效通道名列表
	UndefinedNodes []string `json:"undefined_nodes,omitempty"`
}
