package parallel

// SplitRange partitions items across workers. Each worker first receives a
// contiguous block of floor(n/workers) elements; the n mod workers leftover
// elements at the end of items are then appended one each to the first
// workers. With fewer items than workers, the first n workers get one item
// and the rest get nothing.
//
// The result is deterministic and always has exactly workers entries.
func SplitRange(items []int, workers int) [][]int {
	if workers < 1 {
		workers = 1
	}
	n := len(items)
	out := make([][]int, workers)
	blocksize := n / workers

	for i := 0; i < workers; i++ {
		out[i] = append([]int(nil), items[i*blocksize:(i+1)*blocksize]...)
	}
	tail := items[workers*blocksize:]
	for j, item := range tail {
		out[j] = append(out[j], item)
	}
	return out
}
