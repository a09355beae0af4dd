package ledger

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgercore/internal/domain"
)

type rankEntry struct {
	id      string
	balance decimal.Decimal
	index   int
}

// rankHeap is a min-heap on balance; on equal balances the larger id sorts
// lower so it is evicted first.
type rankHeap []*rankEntry

func (h rankHeap) Len() int { return len(h) }

func (h rankHeap) Less(i, j int) bool {
	if c := h[i].balance.Cmp(h[j].balance); c != 0 {
		return c < 0
	}
	return h[i].id > h[j].id
}

func (h rankHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *rankHeap) Push(x any) {
	e := x.(*rankEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// ranking keeps the k highest balances seen. Updates for an account carry
// the account version they were read at; anything older than what was
// already applied is dropped.
type ranking struct {
	mu      sync.Mutex
	k       int
	heap    rankHeap
	byID    map[string]*rankEntry
	applied map[string]uint64
}

func newRanking(k int) *ranking {
	if k < 0 {
		k = 0
	}
	return &ranking{
		k:       k,
		heap:    make(rankHeap, 0, k+1),
		byID:    make(map[string]*rankEntry, k+1),
		applied: make(map[string]uint64),
	}
}

func (r *ranking) update(id string, balance decimal.Decimal, version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.k == 0 {
		return
	}
	if last, ok := r.applied[id]; ok && version < last {
		return
	}
	r.applied[id] = version

	if e, ok := r.byID[id]; ok {
		heap.Remove(&r.heap, e.index)
		delete(r.byID, id)
	}

	e := &rankEntry{id: id, balance: balance}
	heap.Push(&r.heap, e)
	r.byID[id] = e

	if r.heap.Len() > r.k {
		evicted := heap.Pop(&r.heap).(*rankEntry)
		delete(r.byID, evicted.id)
	}
}

// snapshot returns the ranked accounts, highest balance first.
func (r *ranking) snapshot() []domain.AccountBalance {
	r.mu.Lock()
	out := make([]domain.AccountBalance, len(r.heap))
	for i, e := range r.heap {
		out[i] = domain.AccountBalance{ID: e.id, Balance: e.balance}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Balance.Cmp(out[j].Balance); c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
