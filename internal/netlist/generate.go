// Package netlist 实现振荡器网络的生成、合成与校验。
package netlist

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lvlath/go/core"
)

// GenerateOptions 平面图生成参数
type GenerateOptions struct {
	// Rows 网格行数
	Rows int
	// Cols 网格列数
	Cols int
	// Nodes 逻辑节点数（<= Rows*Cols）
	Nodes int
	// Seed 随机种子；相同种子产生相同的图
	Seed int64
	// ExtraEdgeProb 附加随机边的概率（仅六角相邻格子之间），默认 0.3
	ExtraEdgeProb float64
}

// Network 生成的振荡器网络
// 图结构存放在 lvlath 的 core.Graph 中（无向、无权），
// Placement 记录每个逻辑节点映射到的网格格子。
type Network struct {
	// Rows 网格行数
	Rows int
	// Cols 网格列数
	Cols int
	// Nodes 逻辑节点标签（"0".."n-1"，按生成顺序）
	Nodes []string
	// Placement 逻辑节点到网格格子的映射
	Placement map[string]Cell
	// Graph 耦合拓扑
	Graph *core.Graph
}

// Generate 生成一张连通的平面振荡器网络
// 算法（无递归、无重启）：
//  1. 在网格中随机选 Nodes 个格子作为节点位置；
//  2. BFS 扩张建立连通骨架，只允许六角相邻格子连边，单节点度数不超过 MaxDegree；
//  3. BFS 卡住时从已访问节点强制接入最近的剩余节点；
//  4. 以 ExtraEdgeProb 概率添加附加的六角相邻边。
//
// 参数 opts: 生成参数
// 返回: 生成的网络；参数非法时返回错误
func Generate(opts GenerateOptions) (*Network, error) {
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, fmt.Errorf("网格尺寸非法: %dx%d", opts.Rows, opts.Cols)
	}
	if opts.Nodes <= 0 || opts.Nodes > opts.Rows*opts.Cols {
		return nil, fmt.Errorf("节点数必须在 1 到 rows*cols(%d) 之间: %d", opts.Rows*opts.Cols, opts.Nodes)
	}
	if opts.ExtraEdgeProb == 0 {
		opts.ExtraEdgeProb = 0.3
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	// 1. 随机选择节点位置
	cells := make([]Cell, 0, opts.Rows*opts.Cols)
	for r := 0; r < opts.Rows; r++ {
		for c := 0; c < opts.Cols; c++ {
			cells = append(cells, Cell{r, c})
		}
	}
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	g, err := core.NewGraph()
	if err != nil {
		return nil, fmt.Errorf("创建图失败: %w", err)
	}
	net := &Network{
		Rows:      opts.Rows,
		Cols:      opts.Cols,
		Nodes:     make([]string, opts.Nodes),
		Placement: make(map[string]Cell, opts.Nodes),
		Graph:     g,
	}
	cellOwner := make(map[Cell]string, opts.Nodes)
	degree := make(map[string]int, opts.Nodes)

	for i := 0; i < opts.Nodes; i++ {
		label := fmt.Sprintf("%d", i)
		net.Nodes[i] = label
		net.Placement[label] = cells[i]
		cellOwner[cells[i]] = label
		if err := net.Graph.AddVertex(label); err != nil {
			return nil, fmt.Errorf("添加节点 %s 失败: %w", label, err)
		}
	}

	// addEdge 遵守平面约束：无自环、无重边、单节点度数上限
	addEdge := func(a, b string) bool {
		if a == b || degree[a] >= MaxDegree || degree[b] >= MaxDegree {
			return false
		}
		if net.Graph.HasEdge(a, b) {
			return false
		}
		if _, err := net.Graph.AddEdge(a, b, 0); err != nil {
			return false
		}
		degree[a]++
		degree[b]++
		return true
	}

	// hexAdjacent 判断两个逻辑节点的格子是否六角相邻
	hexAdjacent := func(a, b string) bool {
		pa, pb := net.Placement[a], net.Placement[b]
		for _, nb := range HexNeighbors(opts.Rows, opts.Cols, pa.Row, pa.Col) {
			if nb == pb {
				return true
			}
		}
		return false
	}

	// 2. BFS 扩张建立连通骨架
	remaining := make([]string, len(net.Nodes)-1)
	copy(remaining, net.Nodes[1:])
	visited := []string{net.Nodes[0]}
	inVisited := map[string]bool{net.Nodes[0]: true}
	queue := []string{net.Nodes[0]}

	removeRemaining := func(w string) {
		for i, x := range remaining {
			if x == w {
				remaining = append(remaining[:i], remaining[i+1:]...)
				return
			}
		}
	}

	for len(remaining) > 0 {
		if len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]

			pu := net.Placement[u]
			adj := HexNeighbors(opts.Rows, opts.Cols, pu.Row, pu.Col)
			for _, cell := range adj {
				w, ok := cellOwner[cell]
				if !ok || inVisited[w] {
					continue
				}
				if addEdge(u, w) {
					inVisited[w] = true
					visited = append(visited, w)
					removeRemaining(w)
					queue = append(queue, w)
				}
			}
		}

		if len(queue) == 0 && len(remaining) > 0 {
			// 3. BFS 卡住：先尝试从随机的可用父节点接入相邻剩余节点
			var parents []string
			for _, p := range visited {
				if degree[p] < MaxDegree {
					parents = append(parents, p)
				}
			}
			attached := false
			if len(parents) > 0 {
				p := parents[rng.Intn(len(parents))]
				for _, w := range remaining {
					if hexAdjacent(p, w) && addEdge(p, w) {
						inVisited[w] = true
						visited = append(visited, w)
						removeRemaining(w)
						queue = append(queue, w)
						attached = true
						break
					}
				}
			}

			// 无相邻可接时强制接入：选距离最近的已访问节点
			if !attached {
				w := remaining[0]
				pw := net.Placement[w]
				best := visited[0]
				bestDist := 1 << 30
				for _, v := range visited {
					pv := net.Placement[v]
					d := (pv.Row-pw.Row)*(pv.Row-pw.Row) + (pv.Col-pw.Col)*(pv.Col-pw.Col)
					if d < bestDist {
						best, bestDist = v, d
					}
				}
				addEdge(best, w)
				inVisited[w] = true
				visited = append(visited, w)
				removeRemaining(w)
				queue = append(queue, w)
			}
		}
	}

	// 4. 附加随机边（仅六角相邻）
	for _, u := range net.Nodes {
		for _, v := range net.Nodes {
			if u == v || !hexAdjacent(u, v) {
				continue
			}
			if rng.Float64() < opts.ExtraEdgeProb {
				addEdge(u, v)
			}
		}
	}

	return net, nil
}

// Edges 获取网络的全部无向边（端点按标签排序，整体按字典序）
func (n *Network) Edges() [][2]string {
	var out [][2]string
	for _, e := range n.Graph.Edges() {
		a, b := e.From, e.To
		if a > b {
			a, b = b, a
		}
		out = append(out, [2]string{a, b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	// 无向图可能把一条边报两个方向，这里去重
	dedup := out[:0]
	for i, e := range out {
		if i == 0 || e != out[i-1] {
			dedup = append(dedup, e)
		}
	}
	return dedup
}

// CellNode 查找占据某格子的逻辑节点
func (n *Network) CellNode(cell Cell) (string, bool) {
	for label, c := range n.Placement {
		if c == cell {
			return label, true
		}
	}
	return "", false
}

// HasCoupling 判断两个格子之间是否存在启用的耦合
func (n *Network) HasCoupling(a, b Cell) bool {
	u, ok := n.CellNode(a)
	if !ok {
		return false
	}
	v, ok := n.CellNode(b)
	if !ok {
		return false
	}
	return n.Graph.HasEdge(u, v)
}
