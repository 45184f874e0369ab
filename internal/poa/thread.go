package poa

// thread adds a sequence to the graph. The first sequence (nil steps)
// becomes a plain chain; later sequences follow their alignment, reusing
// matched nodes, joining aligned rings on mismatches and growing new nodes
// on insertions. Node coverage and edge weights record how many sequences
// agree on each node and adjacency
func (g *graph) thread(seq []byte, steps []alignmentStep) error {
	path := make([]int32, 0, len(seq))
	prev := int32(-1)

	link := func(v int32) {
		if prev >= 0 {
			g.addEdge(prev, v)
		}
		prev = v
		path = append(path, v)
	}

	if steps == nil {
		for _, b := range seq {
			v, err := g.addNode(b)
			if err != nil {
				return err
			}
			link(v)
		}
	} else {
		for _, st := range steps {
			if st.pos < 0 {
				// deletion: the graph node is not on this sequence's path
				continue
			}
			base := seq[st.pos]

			var v int32
			if st.node < 0 {
				// insertion relative to the graph
				n, err := g.addNode(base)
				if err != nil {
					return err
				}
				v = n
			} else if a := g.alignedWithBase(st.node, base); a >= 0 {
				v = a
				g.coverage[v]++
			} else {
				n, err := g.addNode(base)
				if err != nil {
					return err
				}
				g.alignNode(n, st.node)
				v = n
			}
			link(v)
		}
	}

	g.paths = append(g.paths, path)
	return nil
}
