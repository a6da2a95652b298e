package sched

// resetKernelState clears the package-level globals a real kernel would
// only ever initialize once at boot. Tests use it to get a clean slate
// between cases; production code never calls it (a real board never
// reboots the scheduler mid-run either).
//
// Only zz_runthreads_test.go lets the real, never-returning RunThreads
// start its loop (the reentrancy test's call panics at once); every
// other test drives Thread.SwitchTo directly so it terminates and
// leaves no background goroutine that could later race a reused thread
// ID for the global wakeup bits.
func resetKernelState() {
	totalThreads = 0
	globalWakeups.bits.Store(0)
	currentThread.Store(uint32(Invalid))
	currentThreadPtr.Store(nil)
	running = false
	syscallFired.Store(0)
	threadHardFault.Store(0)
}
