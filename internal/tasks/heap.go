package tasks

// delayHeap orders messages by ETA, then by submission order
type delayHeap []*message

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	if h[i].eta.Equal(h[j].eta) {
		return h[i].seq < h[j].seq
	}
	return h[i].eta.Before(h[j].eta)
}

func (h delayHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap) Push(x interface{}) {
	*h = append(*h, x.(*message))
}

func (h *delayHeap) Pop() interface{} {
	old := *h
	n := len(old)
	msg := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return msg
}
