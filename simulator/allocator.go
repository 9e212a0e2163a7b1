package simulator

import (
	"cmp"

	"github.com/addrummond/heap"
)

// rankedStation orders stations for allocation: highest priority score first,
// ties broken by registration order.
type rankedStation struct {
	score   float64
	order   int
	station *Station
}

func (a *rankedStation) Cmp(b *rankedStation) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}

// allocateWorkers distributes the budget greedily across stations for the
// current tick and returns the number of workers granted. Stations that are
// not reached before the budget runs out get zero.
func allocateWorkers(stations []*Station, budget int) int {
	var ranking heap.Heap[rankedStation, heap.Min]
	for i, st := range stations {
		st.SetAssignedWorkers(0)
		heap.PushOrderable(&ranking, rankedStation{
			score:   st.PriorityScore(),
			order:   i,
			station: st,
		})
	}

	remaining := budget
	for remaining > 0 {
		next, ok := heap.PopOrderable(&ranking)
		if !ok {
			break
		}
		st := next.station
		want := min(st.MaxWorkers(), st.BacklogLen())
		grant := min(want, remaining)
		st.SetAssignedWorkers(grant)
		remaining -= grant
	}
	return budget - remaining
}
