package reactive

import "coupler-sim/internal/model"

// buildGraph returns an adjacency list (edges a->b meaning a must evaluate
// before b) over behavior indices, per §4.4: an edge a->b exists when b's
// source channel is produced by a's target.
func buildGraph(behaviors []model.ReactiveBehavior) [][]int {
	targetIndex := make(map[model.ChannelRef]int, len(behaviors))
	for i, b := range behaviors {
		targetIndex[b.Target] = i
	}
	adj := make([][]int, len(behaviors))
	for b, behavior := range behaviors {
		if behavior.Source == nil {
			continue
		}
		a, ok := targetIndex[*behavior.Source]
		if !ok || a == b {
			continue
		}
		adj[a] = append(adj[a], b)
	}
	return adj
}

// detectCycle runs white/gray/black DFS over adj. On a back edge to a gray
// node it reconstructs the cycle as a slice of behavior IDs in edge order.
func detectCycle(adj [][]int, behaviors []model.ReactiveBehavior) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	n := len(adj)
	color := make([]int, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	var cycle []string
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range adj[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycle = reconstructCycle(v, u, parent, behaviors)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white {
			if dfs(i) {
				return cycle
			}
		}
	}
	return nil
}

func reconstructCycle(ancestor, descendant int, parent []int, behaviors []model.ReactiveBehavior) []string {
	path := []int{descendant}
	cur := descendant
	for cur != ancestor {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	ids := make([]string, len(path))
	for i, idx := range path {
		ids[i] = behaviors[idx].ID
	}
	return ids
}

// topoSort runs Kahn's algorithm over adj, breaking ties by ascending
// index (definition order) so evaluation order is reproducible (§4.4).
func topoSort(adj [][]int) []int {
	n := len(adj)
	indegree := make([]int, n)
	for _, neighbors := range adj {
		for _, v := range neighbors {
			indegree[v]++
		}
	}

	available := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			available = append(available, i)
		}
	}

	order := make([]int, 0, n)
	for len(available) > 0 {
		minPos := 0
		for i, v := range available {
			if v < available[minPos] {
				minPos = i
			}
		}
		u := available[minPos]
		available = append(available[:minPos], available[minPos+1:]...)
		order = append(order, u)
		for _, v := range adj[u] {
			indegree[v]--
			if indegree[v] == 0 {
				available = append(available, v)
			}
		}
	}
	return order
}
