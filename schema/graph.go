package schema

import "slices"

// DependencyGraph records which definitions contain which others inline.
// List, Map and Boxed add indirection and contribute no edges, so a cycle in
// this graph is a recursive type the target cannot lay out.
type DependencyGraph struct {
	Nodes map[string]*GraphNode
	Edges map[string][]string // definition name -> names contained inline

	order  []string
	debugf func(format string, args ...any)
}

// GraphNode is one definition in the dependency graph
type GraphNode struct {
	Name      string
	Recursive bool // set by DetectCycles
}

// NewDependencyGraph creates an empty graph. debugf may be nil.
func NewDependencyGraph(debugf func(format string, args ...any)) *DependencyGraph {
	if debugf == nil {
		debugf = func(string, ...any) {}
	}
	return &DependencyGraph{
		Nodes:  make(map[string]*GraphNode),
		Edges:  make(map[string][]string),
		debugf: debugf,
	}
}

// AddType adds a definition, keeping first-insertion order
func (g *DependencyGraph) AddType(name string) {
	if _, exists := g.Nodes[name]; !exists {
		g.Nodes[name] = &GraphNode{Name: name}
		g.Edges[name] = []string{}
		g.order = append(g.order, name)
	}
}

// AddDependency adds an inline containment edge (from -> to)
func (g *DependencyGraph) AddDependency(from, to string) {
	g.AddType(from)
	g.AddType(to)

	for _, existing := range g.Edges[from] {
		if existing == to {
			return
		}
	}

	g.Edges[from] = append(g.Edges[from], to)
	g.debugf("Added dependency: %s -> %s", from, to)
}

// DetectCycles returns one cycle per DFS tree that contains one, visiting
// definitions in insertion order so the result is stable across runs. A cycle
// lists its members and repeats the first at the end.
func (g *DependencyGraph) DetectCycles() [][]string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int)
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = onPath
		path = append(path, name)
		for _, next := range g.Edges[name] {
			switch state[next] {
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			case onPath:
				start := slices.Index(path, next)
				return append(slices.Clone(path[start:]), next)
			}
		}
		state[name] = done
		path = path[:len(path)-1]
		return nil
	}

	var cycles [][]string
	for _, name := range g.order {
		if state[name] != unvisited {
			continue
		}
		path = path[:0]
		cycle := visit(name)
		if cycle == nil {
			continue
		}
		// the walk stopped early; nothing left on the path may close a cycle
		for _, member := range path {
			state[member] = done
		}
		g.debugf("Found cycle: %v", cycle)
		for _, member := range cycle {
			g.Nodes[member].Recursive = true
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}

// AnalyzeDefinitions builds the inline containment graph of the non-tainted
// definitions
func AnalyzeDefinitions(defs []Definition, debugf func(format string, args ...any)) *DependencyGraph {
	g := NewDependencyGraph(debugf)

	for _, d := range defs {
		if !d.Tainted() {
			g.AddType(d.Root.TypeName())
		}
	}

	for _, d := range defs {
		if d.Tainted() {
			continue
		}
		g.debugf("Analyzing dependencies for type: %s", d.Root.TypeName())
		switch n := d.Root.(type) {
		case *Struct:
			for _, f := range n.Fields {
				if target := inlineTarget(f.Node); target != nil {
					g.AddDependency(n.Name, target.TypeName())
				}
			}
		case *Union:
			// a union stores its variant payloads inline
			for _, v := range n.Variants {
				g.AddDependency(n.Name, v.Struct.Name)
			}
		}
	}

	return g
}

// inlineTarget returns the named node stored inline by a field, looking
// through optionals
func inlineTarget(n Node) Named {
	switch n := n.(type) {
	case *Optional:
		return inlineTarget(n.Elem)
	case *Struct:
		return n
	case *Union:
		return n
	}
	return nil
}
