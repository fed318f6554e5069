package detective

import "sort"

// Edge is a dependency between two detectives: From produces at least one
// attribute that To requires.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Via  []Name `json:"via"`
}

// Graph is the dependency graph over registered detectives. Nodes are
// addressed by ordinal.
type Graph struct {
	nodes []Descriptor
	succ  [][]int
	pred  [][]int
	edges []Edge
}

// NewGraph builds the graph for descs, which must be in ordinal order as
// returned by Registry.Descriptors.
func NewGraph(descs []Descriptor) *Graph {
	g := &Graph{
		nodes: descs,
		succ:  make([][]int, len(descs)),
		pred:  make([][]int, len(descs)),
	}

	producers := make(map[Name][]int)
	for i, d := range descs {
		for _, n := range d.Outputs {
			producers[n] = append(producers[n], i)
		}
	}

	for to, d := range descs {
		via := make(map[int][]Name)
		for _, n := range d.Inputs {
			for _, from := range producers[n] {
				via[from] = append(via[from], n)
			}
		}
		froms := make([]int, 0, len(via))
		for from := range via {
			froms = append(froms, from)
		}
		sort.Ints(froms)
		for _, from := range froms {
			names := via[from]
			sortNames(names)
			g.succ[from] = append(g.succ[from], to)
			g.pred[to] = append(g.pred[to], from)
			g.edges = append(g.edges, Edge{From: descs[from].ID, To: d.ID, Via: names})
		}
	}
	for i := range g.succ {
		sort.Ints(g.succ[i])
	}
	sort.SliceStable(g.edges, func(i, j int) bool {
		return g.ordinal(g.edges[i].From) < g.ordinal(g.edges[j].From)
	})
	return g
}

func (g *Graph) ordinal(id string) int {
	for i, d := range g.nodes {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Edges returns the dependency edges ordered by producer ordinal.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// DetectCycles returns a *CycleError for the first cycle found, visiting
// detectives in ordinal order, or nil when the graph is acyclic.
func (g *Graph) DetectCycles() error {
	visited := make([]bool, len(g.nodes))
	onStack := make([]bool, len(g.nodes))
	path := make([]int, 0, len(g.nodes))

	var dfs func(n int) error
	dfs = func(n int) error {
		visited[n] = true
		onStack[n] = true
		path = append(path, n)

		for _, next := range g.succ[n] {
			if !visited[next] {
				if err := dfs(next); err != nil {
					return err
				}
			} else if onStack[next] {
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				ids := make([]string, 0, len(path)-start+1)
				for _, p := range path[start:] {
					ids = append(ids, g.nodes[p].ID)
				}
				ids = append(ids, g.nodes[next].ID)
				return &CycleError{Path: ids}
			}
		}

		path = path[:len(path)-1]
		onStack[n] = false
		return nil
	}

	for n := range g.nodes {
		if !visited[n] {
			if err := dfs(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan is a topological order of the detectives grouped into stages. Every
// detective's producers sit in earlier stages.
type Plan struct {
	Order  []Descriptor
	Stages [][]Descriptor
}

// Stage returns the stage index of id, or -1.
func (p Plan) Stage(id string) int {
	for i, stage := range p.Stages {
		for _, d := range stage {
			if d.ID == id {
				return i
			}
		}
	}
	return -1
}

// Plan computes a topological order with Kahn's algorithm, always taking the
// lowest ready ordinal next. When the graph has a cycle, the detectives on or
// behind it are placed together in one final stage in ordinal order and the
// *CycleError is returned alongside the plan.
func (g *Graph) Plan() (Plan, error) {
	indeg := make([]int, len(g.nodes))
	for i := range g.nodes {
		indeg[i] = len(g.pred[i])
	}
	level := make([]int, len(g.nodes))
	placed := make([]bool, len(g.nodes))

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	var plan Plan
	for len(ready) > 0 {
		sort.Ints(ready)
		n := ready[0]
		ready = ready[1:]
		placed[n] = true
		plan.Order = append(plan.Order, g.nodes[n])

		for len(plan.Stages) <= level[n] {
			plan.Stages = append(plan.Stages, nil)
		}
		plan.Stages[level[n]] = append(plan.Stages[level[n]], g.nodes[n])

		for _, next := range g.succ[n] {
			if level[n]+1 > level[next] {
				level[next] = level[n] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(plan.Order) == len(g.nodes) {
		return plan, nil
	}
	var rest []Descriptor
	for i, ok := range placed {
		if !ok {
			rest = append(rest, g.nodes[i])
		}
	}
	plan.Order = append(plan.Order, rest...)
	plan.Stages = append(plan.Stages, rest)
	return plan, g.DetectCycles()
}
