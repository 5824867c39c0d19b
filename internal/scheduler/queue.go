package scheduler

// queue is a min-heap of armed reminders ordered by FireAt, then ID.
// It implements container/heap.Interface.
type queue []*entry

type entry struct {
	r     *Reminder
	index int
}

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].r.FireAt.Equal(q[j].r.FireAt) {
		return q[i].r.ID < q[j].r.ID
	}
	return q[i].r.FireAt.Before(q[j].r.FireAt)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}
