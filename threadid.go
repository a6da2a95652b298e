package sched

// ThreadID identifies one of the at most maxThreads cooperative threads
// known to the scheduler. IDs are assigned densely in creation order and
// never change for the life of a thread.
type ThreadID uint8

// Invalid is the sentinel ThreadID meaning "no thread": the scheduler
// itself is running on the main stack, or a wakeup bit has no owner.
const Invalid ThreadID = 0xFF

// maxThreads bounds the wakeup set to 32 bits; see WakeupSet.
const maxThreads = 32
