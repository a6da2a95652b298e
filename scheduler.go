package sched

import "sync"

// globalWakeups is the process-wide THREAD_WAKEUPS bitfield: runnable
// thread IDs, set by NewThread, WakeupThread/WakeupThreads, and a
// Mutex's guard release, and consumed by the scheduler's main loop.
var globalWakeups = &WakeupSet{}

// schedMu/schedCond implement the scheduler's critical section: the
// is-empty check and the architectural wait must be atomic with respect
// to a wakeup arriving in between, the same guarantee a real WFI wrapped
// in an interrupt-masked critical section provides. A hosted goroutine
// has no interrupt mask, so a condition variable plays the same role:
// any wakeup posted while the loop holds schedMu is guaranteed to be
// seen before the wait releases it.
var (
	schedMu   sync.Mutex
	schedCond = sync.NewCond(&schedMu)
)

func init() {
	globalWakeups.onChange = func() {
		schedMu.Lock()
		schedCond.Broadcast()
		schedMu.Unlock()
	}
}

// WakeupThread schedules the given thread to run. Call this from
// interrupt context to resume work.
func WakeupThread(id ThreadID) {
	globalWakeups.Add(id)
}

// WakeupThreads schedules a batch of threads to run.
func WakeupThreads(mask uint32) {
	globalWakeups.AddAll(mask)
}

// running guards RunThreads against reentrancy; it is only ever touched
// from the scheduler's own context, which by construction is a single
// goroutine.
var running bool

// RunThreads enters the scheduler and never returns. It panics if called
// reentrantly (from within a thread, or from a second call while the
// first is still running).
func RunThreads(threads []*Thread) {
	if CurrentThread() != Invalid || running {
		panic("sched: RunThreads called reentrantly")
	}
	running = true

	if n := len(threads); n > 0 {
		globalWakeups.AddAll((uint32(1) << uint(n)) - 1)
	}

	for {
		for _, t := range threads {
			t.SwitchTo()
		}

		schedMu.Lock()
		for globalWakeups.IsEmpty() {
			schedCond.Wait()
		}
		schedMu.Unlock()
	}
}
