package automaton

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot writes d in Graphviz dot syntax. Accepting states are drawn as
// double circles labelled with the pattern name from names, or with the
// pattern index when names is too short. The dead state and edges into it
// are omitted.
func WriteDot(w io.Writer, d *DFA, names []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph dfa {")
	fmt.Fprintln(bw, "\trankdir=LR;")
	fmt.Fprintln(bw, "\tnode [shape=circle];")
	fmt.Fprintln(bw, "\tstart [shape=point];")
	fmt.Fprintf(bw, "\tstart -> s%d;\n", StartState)

	for s := 1; s < d.NumStates(); s++ {
		l := d.Label(State(s))
		if l == NoMatch {
			fmt.Fprintf(bw, "\ts%d [label=\"%d\"];\n", s, s)
			continue
		}
		name := strconv.Itoa(l)
		if l < len(names) {
			name = names[l]
		}
		fmt.Fprintf(bw, "\ts%d [shape=doublecircle, label=%s];\n", s, strconv.Quote(fmt.Sprintf("%d\n%s", s, name)))
	}
	for s := 1; s < d.NumStates(); s++ {
		for _, e := range d.states[s].edges {
			if e.To == DeadState {
				continue
			}
			fmt.Fprintf(bw, "\ts%d -> s%d [label=%s];\n", s, e.To, strconv.Quote(e.Set.String()))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
