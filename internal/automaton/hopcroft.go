package automaton

import "DerivLex/internal/byteset"

// Minimize returns the minimal DFA accepting the same labelled language as d.
// Unreachable states are dropped first, then states are merged by Hopcroft
// partition refinement over the global byte classes of d. The result keeps
// the dead state at 0 and the start state at 1. Minimizing a minimal DFA
// returns an isomorphic copy.
func (d *DFA) Minimize() *DFA {
	reach := d.Reachable()
	var old []State
	index := make([]int, len(d.states))
	for s, ok := range reach {
		index[s] = -1
		if ok {
			index[s] = len(old)
			old = append(old, State(s))
		}
	}

	classes, nclasses := d.ByteClasses()
	reps := make([]byte, nclasses)
	for b := 255; b >= 0; b-- {
		reps[classes[b]] = byte(b)
	}

	n := len(old)
	trans := make([][]int, n)
	inv := make([][][]int, nclasses)
	for c := range inv {
		inv[c] = make([][]int, n)
	}
	for i, s := range old {
		trans[i] = make([]int, nclasses)
		for c := 0; c < nclasses; c++ {
			t := index[d.Step(s, reps[c])]
			trans[i][c] = t
			inv[c][t] = append(inv[c][t], i)
		}
	}

	p := newPartition(n)
	byLabel := make(map[int]int)
	for i, s := range old {
		l := d.states[s].label
		blk, ok := byLabel[l]
		if !ok {
			blk = len(p.blocks)
			byLabel[l] = blk
			p.blocks = append(p.blocks, nil)
		}
		p.blocks[blk] = append(p.blocks[blk], i)
		p.blockOf[i] = blk
	}

	work := make([]int, 0, len(p.blocks))
	inWork := make([]bool, len(p.blocks))
	for blk := range p.blocks {
		work = append(work, blk)
		inWork[blk] = true
	}

	mark := make([]bool, n)
	var (
		pre     []int
		touched []int
		count   = make([]int, n)
	)
	for len(work) > 0 {
		a := work[len(work)-1]
		work = work[:len(work)-1]
		inWork[a] = false
		splitter := append([]int(nil), p.blocks[a]...)

		for c := 0; c < nclasses; c++ {
			for _, t := range splitter {
				for _, s := range inv[c][t] {
					if mark[s] {
						continue
					}
					mark[s] = true
					pre = append(pre, s)
					blk := p.blockOf[s]
					if count[blk] == 0 {
						touched = append(touched, blk)
					}
					count[blk]++
				}
			}

			for _, y := range touched {
				if count[y] < len(p.blocks[y]) {
					z := p.split(y, mark)
					inWork = append(inWork, false)
					switch {
					case inWork[y]:
						work = append(work, z)
						inWork[z] = true
					case len(p.blocks[y]) <= len(p.blocks[z]):
						work = append(work, y)
						inWork[y] = true
					default:
						work = append(work, z)
						inWork[z] = true
					}
				}
				count[y] = 0
			}
			touched = touched[:0]
			for _, s := range pre {
				mark[s] = false
			}
			pre = pre[:0]
		}
	}

	return p.quotient(d, old, trans, reps, classes)
}

type partition struct {
	blocks  [][]int
	blockOf []int
}

func newPartition(n int) *partition {
	return &partition{blockOf: make([]int, n)}
}

// split moves the unmarked members of block y into a new block and returns
// its index. Marked members stay in y.
func (p *partition) split(y int, mark []bool) int {
	var in, out []int
	for _, s := range p.blocks[y] {
		if mark[s] {
			in = append(in, s)
		} else {
			out = append(out, s)
		}
	}
	z := len(p.blocks)
	p.blocks[y] = in
	p.blocks = append(p.blocks, out)
	for _, s := range out {
		p.blockOf[s] = z
	}
	return z
}

// quotient builds the DFA whose states are the blocks of p. The block of the
// dead state becomes 0, the block of the start state 1, and the remaining
// blocks are numbered in breadth-first order from the start.
func (p *partition) quotient(d *DFA, old []State, trans [][]int, reps []byte, classes [256]uint8) *DFA {
	// old[0] is DeadState and old[1] is StartState: Reachable reports both.
	deadBlk, startBlk := p.blockOf[0], p.blockOf[1]

	number := make([]State, len(p.blocks))
	for i := range number {
		number[i] = ^State(0)
	}
	number[deadBlk] = DeadState
	order := []int{deadBlk}
	if startBlk != deadBlk {
		number[startBlk] = StartState
		order = append(order, startBlk)
	}
	for q := 1; q < len(order); q++ {
		rep := p.blocks[order[q]][0]
		for _, t := range trans[rep] {
			blk := p.blockOf[t]
			if number[blk] == ^State(0) {
				number[blk] = State(len(order))
				order = append(order, blk)
			}
		}
	}

	// Class sets, so edges are built from classes rather than single bytes.
	classSets := make([]byteset.Set, len(reps))
	for b := 0; b < 256; b++ {
		classSets[classes[b]] = classSets[classes[b]].Union(byteset.Single(byte(b)))
	}

	m := &DFA{patterns: d.patterns}
	for _, blk := range order {
		rep := p.blocks[blk][0]
		targets := make([]State, len(reps))
		for c, t := range trans[rep] {
			targets[c] = number[p.blockOf[t]]
		}
		m.states = append(m.states, dfaState{
			edges: mergeEdges(classSets, targets),
			label: d.states[old[rep]].label,
		})
	}
	if startBlk == deadBlk {
		m.states = append(m.states, dfaState{
			edges: []Edge{{Set: byteset.Full(), To: DeadState}},
			label: NoMatch,
		})
	}
	return m.finish()
}
