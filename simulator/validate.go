package simulator

import "fmt"

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// ValidateGraph checks a fully linked station set before the first tick.
//
// It rejects duplicate names and cycles, infers terminal stations (no
// downstream links and not initial), and requires exactly one initial and one
// terminal station, with the initial station feeding at least one link.
// Terminal flags are updated in place.
func ValidateGraph(stations []*Station) error {
	if len(stations) == 0 {
		return ErrInvalidTopology("line has no stations")
	}

	seen := make(map[string]bool, len(stations))
	for _, st := range stations {
		if seen[st.name] {
			return ErrInvalidTopology(fmt.Sprintf("duplicate station name %q", st.name))
		}
		seen[st.name] = true
	}

	if err := checkCycles(stations); err != nil {
		return err
	}

	var initial *Station
	initialCount, terminalCount := 0, 0
	for _, st := range stations {
		st.isTerminal = len(st.next) == 0 && !st.isInitial
		if st.isInitial {
			initial = st
			initialCount++
		}
		if st.isTerminal {
			terminalCount++
		}
	}
	if initialCount != 1 || terminalCount != 1 {
		return ErrInvalidTopology(fmt.Sprintf(
			"expected exactly one initial and one terminal station, found %d initial and %d terminal",
			initialCount, terminalCount))
	}
	if len(initial.next) == 0 {
		return ErrInvalidTopology(fmt.Sprintf("initial station %q has no downstream stations", initial.name))
	}
	return nil
}

// checkCycles runs an iterative depth-first search from every station using
// three-color marking. Reaching a station that is still in progress means the
// downstream relation has a cycle.
func checkCycles(stations []*Station) error {
	type frame struct {
		station *Station
		edge    int // Next downstream link to explore
	}

	state := make(map[*Station]visitState, len(stations))
	stack := make([]frame, 0, len(stations))

	for _, root := range stations {
		if state[root] != unvisited {
			continue
		}
		state[root] = inProgress
		stack = append(stack, frame{station: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.edge == len(top.station.next) {
				state[top.station] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := top.station.next[top.edge]
			top.edge++

			switch state[child] {
			case inProgress:
				return errCycleAt(child.name)
			case unvisited:
				state[child] = inProgress
				stack = append(stack, frame{station: child})
			}
		}
	}
	return nil
}
