package sched

import "testing"

// workloads is a table-driven benchmark matrix, scaled down to the
// handful of cooperative threads this kernel supports instead of OS
// threads.
var workloads = []struct {
	name        string
	concurrency int
}{
	{"Serial", 1},
	{"LowConcurrency", 2},
	{"MediumConcurrency", 8},
	{"HighConcurrency", 31},
}

func benchmarkMutex(b *testing.B, concurrency int) {
	resetKernelState()

	m := NewMutex(0)
	threads := make([]*Thread, concurrency)
	finished := make([]bool, concurrency)

	for i := 0; i < concurrency; i++ {
		stack := make([]uint32, 64)
		th, err := NewThread(stack, Closure{Fn: func([]byte) {
			for n := 0; n < b.N; n++ {
				g := m.Lock()
				g.Set(g.Get() + 1)
				g.Unlock()
				Yieldk()
			}
		}})
		if err != nil {
			b.Fatal(err)
		}
		threads[i] = th
	}

	for {
		allDone := true
		for i, th := range threads {
			if finished[i] {
				continue
			}
			switch th.SwitchTo() {
			case Yield:
				WakeupThread(th.ID())
				allDone = false
			case Finished:
				finished[i] = true
			default:
				allDone = false
			}
		}
		if allDone {
			break
		}
	}
}

func BenchmarkMutexContention(b *testing.B) {
	for _, w := range workloads {
		b.Run(w.name, func(b *testing.B) {
			benchmarkMutex(b, w.concurrency)
		})
	}
}

func BenchmarkWakeupSetAddRemove(b *testing.B) {
	var w WakeupSet
	for i := 0; i < b.N; i++ {
		w.Add(ThreadID(i % maxThreads))
		w.Remove(ThreadID(i % maxThreads))
	}
}
