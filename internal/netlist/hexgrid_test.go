// Package netlist 六角网格邻接测试
package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexNeighbors_EvenRow(t *testing.T) {
	// 偶数行：斜向邻居的列偏移为 -1 和 0
	got := HexNeighbors(10, 10, 2, 3)
	want := []Cell{
		{2, 2}, {2, 4},
		{1, 2}, {1, 3},
		{3, 2}, {3, 3},
	}
	assert.ElementsMatch(t, want, got)
}

func TestHexNeighbors_OddRow(t *testing.T) {
	// 奇数行：斜向邻居的列偏移为 0 和 +1
	got := HexNeighbors(10, 10, 3, 3)
	want := []Cell{
		{3, 2}, {3, 4},
		{2, 3}, {2, 4},
		{4, 3}, {4, 4},
	}
	assert.ElementsMatch(t, want, got)
}

func TestHexNeighbors_CornerClipped(t *testing.T) {
	// 左上角只剩两个界内邻居
	got := HexNeighbors(5, 5, 0, 0)
	want := []Cell{{0, 1}, {1, 0}}
	assert.ElementsMatch(t, want, got)

	// 任何格子的邻居数不超过 MaxDegree
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			assert.LessOrEqual(t, len(HexNeighbors(5, 5, r, c)), MaxDegree)
		}
	}
}

func TestHexNeighbors_Symmetric(t *testing.T) {
	// 邻接关系必须对称：b 在 a 的邻居中 ⟺ a 在 b 的邻居中
	const rows, cols = 6, 7
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for _, nb := range HexNeighbors(rows, cols, r, c) {
				back := HexNeighbors(rows, cols, nb.Row, nb.Col)
				assert.Contains(t, back, Cell{r, c},
					"(%d,%d) 的邻居 (%d,%d) 不包含回边", r, c, nb.Row, nb.Col)
			}
		}
	}
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "N_2_3_1", NodeName(2, 3, 1))
	assert.Equal(t, "N_2_3_7", NodeName(2, 3, 7))
	assert.Equal(t, "N_2_3_1", ProbeNode(2, 3))
	assert.Equal(t, "EN_RO_2_3", EnableRO(2, 3))
	assert.Equal(t, "EN_C_0_1__1_1", EnableCoupler(0, 1, 1, 1))
}

func TestProbeOrder_RowMajor(t *testing.T) {
	got := ProbeOrder(2, 3)
	want := []string{
		"N_0_0_1", "N_0_1_1", "N_0_2_1",
		"N_1_0_1", "N_1_1_1", "N_1_2_1",
	}
	assert.Equal(t, want, got)
}

func TestAllCouplingPairs(t *testing.T) {
	pairs := AllCouplingPairs(3, 3)
	require.NotEmpty(t, pairs)

	// 去重：每条无向邻接只出现一个方向
	seen := make(map[CouplingPair]bool)
	for _, p := range pairs {
		rev := CouplingPair{p.R2, p.C2, p.R1, p.C1}
		assert.False(t, seen[rev], "耦合对 %+v 的反向已存在", p)
		seen[p] = true
	}

	// 总数等于无向邻接边数：每个格子的邻居数之和除以 2
	total := 0
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			total += len(HexNeighbors(3, 3, r, c))
		}
	}
	assert.Equal(t, total/2, len(pairs))
}
