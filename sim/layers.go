package sim

// Dependencies returns, for every instruction, the indices of the instructions it must
// follow: the previous instruction on each qubit it touches.
func (c *Circuit) Dependencies() [][]int {
	lastOnQubit := make(map[int]int)
	deps := make([][]int, len(c.instructions))
	for i, g := range c.instructions {
		seen := make(map[int]bool)
		for _, q := range g.qubits() {
			if last, ok := lastOnQubit[q]; ok && !seen[last] {
				seen[last] = true
				deps[i] = append(deps[i], last)
			}
		}
		for _, q := range g.qubits() {
			lastOnQubit[q] = i
		}
	}
	return deps
}

// Layers groups instruction indices into ASAP layers: an instruction sits one layer
// after the latest instruction it depends on. Instructions within a layer touch
// disjoint qubits.
func (c *Circuit) Layers() [][]int {
	deps := c.Dependencies()
	level := make([]int, len(c.instructions))
	var layers [][]int
	for i := range c.instructions {
		l := 0
		for _, d := range deps[i] {
			l = max(l, level[d]+1)
		}
		level[i] = l
		if l == len(layers) {
			layers = append(layers, nil)
		}
		layers[l] = append(layers[l], i)
	}
	return layers
}

// Depth returns the number of ASAP layers.
func (c *Circuit) Depth() int {
	return len(c.Layers())
}

// GatesOnQubit returns the indices of the instructions that touch the given qubit.
func (c *Circuit) GatesOnQubit(qubit int) []int {
	var out []int
	for i, g := range c.instructions {
		if g.references(qubit) {
			out = append(out, i)
		}
	}
	return out
}
