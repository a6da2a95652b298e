package sched

import (
	"encoding/binary"
	"errors"
)

// Errors returned by NewThread. These are creation-time only; nothing at
// runtime propagates through a normal return path (see SwitchReason).
var (
	ErrTooManyThreads  = errors.New("sched: too many threads")
	ErrStackTooSmall   = errors.New("sched: stack too small for initial frame")
	ErrNotOnMainThread = errors.New("sched: thread creation attempted from within a thread")
)

// frameWords is the size, in 32-bit words, of the Cortex-M exception
// hardware frame: xPSR, PC, LR, R12, R3, R2, R1, R0.
const frameWords = 8

// minInitialFrameWords is the minimum stack a thread may be created
// with: the hardware frame plus headroom for the unwind/debug view a
// real debugger expects at the top of a fresh thread's stack, before
// any of the thread's own working stack.
const minInitialFrameWords = 16

// saveAreaWords is the size of the callee-saved register side buffer
// (r4-r11), kept off the stack in a side array rather than pushed.
const saveAreaWords = 8

// Sentinel fill patterns, carried verbatim from the reference
// implementation so a stack dump is recognizable under a debugger.
const (
	stackFillSentinel = 0xDEADBEEF
	r12Sentinel       = 0xCCCCCCCC
	r3Sentinel        = 0x33333333
	r2Sentinel        = 0x22222222
	r1Sentinel        = 0x11111111
	r0Sentinel        = 0x00000000
	xpsrThumbBit      = 0x01000000
)

var saveAreaSentinel = [saveAreaWords]uint32{
	0x77777777, // R7
	0x66666666, // R6
	0x55555555, // R5
	0x44444444, // R4
	0xBBBBBBBB, // R11
	0xAAAAAAAA, // R10
	0x99999999, // R9
	0x88888888, // R8
}

// Closure is the payload a thread runs. Fn receives the exact bytes of
// Payload, reconstructed from the thread's own stack buffer on first
// switch-in -- the same bytes the caller handed to NewThread, copied by
// value into the stack and never touched again from the creator's side.
type Closure struct {
	Fn      func(payload []byte)
	Payload []byte
}

// frame mirrors the 8-word Cortex-M hardware exception frame. It is kept
// as a first-class value on the Thread and is not written into the stack
// buffer, so tests can inspect exactly what a real switch-in would place
// there.
type frame struct {
	xPSR, pc, lr, r12, r3, r2, r1, r0 uint32
}

// Thread owns a stack buffer and save area for the lifetime of the
// thread; two threads never share either. It is not safe to call
// SwitchTo/ForceSwitchTo concurrently -- only the scheduler, which is
// single-threaded with respect to itself, ever does.
type Thread struct {
	id    ThreadID
	stack []uint32
	save  [saveAreaWords]uint32
	fr    frame

	closure Closure

	started  bool
	finished bool

	resume chan struct{}
	parked chan switchMsg
}

type switchMsg struct {
	fault        bool
	firedSyscall bool
	nr           uint8
}

// total live contexts; guarded by the "creation only on the main
// thread" rule, so it needs no lock of its own.
var totalThreads int

// NewThread builds a thread context over stack (word-sized cells,
// mutable, borrowed for the thread's entire lifetime) that will run
// closure once dispatched. Creation is only legal from the scheduler's
// own context (CurrentThread() == Invalid) and before the 33rd thread
// would be created.
func NewThread(stack []uint32, closure Closure) (*Thread, error) {
	if CurrentThread() != Invalid {
		return nil, ErrNotOnMainThread
	}
	if totalThreads >= maxThreads {
		return nil, ErrTooManyThreads
	}

	payloadWords := (len(closure.Payload) + 3) / 4
	overflowWords := 0
	if payloadWords > 4 {
		overflowWords = payloadWords - 4
	}
	if len(stack) < minInitialFrameWords+overflowWords {
		return nil, ErrStackTooSmall
	}

	fillStack(stack)

	t := &Thread{
		id:      ThreadID(totalThreads),
		stack:   stack,
		save:    saveAreaSentinel,
		closure: closure,
		resume:  make(chan struct{}),
		parked:  make(chan switchMsg),
	}
	t.buildInitialFrame()

	totalThreads++
	globalWakeups.Add(t.id)
	return t, nil
}

func fillStack(stack []uint32) {
	for i := range stack {
		stack[i] = stackFillSentinel
	}
}

// buildInitialFrame builds the hardware frame value and places the
// closure payload: up to four words of the payload live in the R0..R3
// frame slots, with any excess copied into the topmost words of the
// stack buffer. The frame itself is held in t.fr, not in the stack.
func (t *Thread) buildInitialFrame() {
	words := payloadToWords(t.closure.Payload)

	var regWords [4]uint32
	for i := 0; i < 4 && i < len(words); i++ {
		regWords[i] = words[i]
	}
	overflow := words
	if len(overflow) > 4 {
		overflow = overflow[4:]
	} else {
		overflow = nil
	}

	top := len(t.stack)
	if len(overflow) > 0 {
		top -= len(overflow)
		copy(t.stack[top:], overflow)
	}

	t.fr = frame{
		xPSR: xpsrThumbBit,
		pc:   uint32(trampolineAddr),
		lr:   uint32(threadEndAddr),
		r12:  r12Sentinel,
		r3:   regWords[3],
		r2:   regWords[2],
		r1:   regWords[1],
		r0:   regWords[0],
	}
	// R0..R3 carry payload words when present; otherwise the sentinel
	// debug values that mark an empty payload under inspection.
	if len(words) == 0 {
		t.fr.r0, t.fr.r1, t.fr.r2, t.fr.r3 = r0Sentinel, r1Sentinel, r2Sentinel, r3Sentinel
	}
}

func payloadToWords(payload []byte) []uint32 {
	n := (len(payload) + 3) / 4
	words := make([]uint32, n)
	padded := make([]byte, n*4)
	copy(padded, payload)
	for i := 0; i < n; i++ {
		words[i] = binary.LittleEndian.Uint32(padded[i*4:])
	}
	return words
}

// these two values are never dereferenced -- in a hosted simulation
// there is no trampoline to jump to, the goroutine spawned by
// switchInternal plays that role -- but they are kept as distinguishable
// values so a captured frame still looks like a real one under
// inspection.
const (
	trampolineAddr = 0x08000001
	threadEndAddr  = 0x08000011
)

// Payload reconstructs the bytes originally handed to NewThread by
// reading them back out of the stack buffer and the captured frame --
// the same storage a real hardware resume would read registers and
// stack words from.
func (t *Thread) Payload() []byte {
	n := len(t.closure.Payload)
	if n == 0 {
		return nil
	}
	words := (n + 3) / 4
	buf := make([]uint32, words)
	regWords := []uint32{t.fr.r0, t.fr.r1, t.fr.r2, t.fr.r3}
	for i := 0; i < words && i < 4; i++ {
		buf[i] = regWords[i]
	}
	if words > 4 {
		top := len(t.stack) - (words - 4)
		copy(buf[4:], t.stack[top:])
	}
	out := make([]byte, words*4)
	for i, w := range buf {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out[:n]
}

// ID returns the thread's immutable identity.
func (t *Thread) ID() ThreadID { return t.id }

// SwitchReason classifies the outcome of a context switch.
type SwitchReason int

const (
	// NotReady means the thread's wakeup bit was not set, so SwitchTo
	// declined to switch at all.
	NotReady SwitchReason = iota
	Yield
	Finished
	Fault
	Unknown
)

func (r SwitchReason) String() string {
	switch r {
	case NotReady:
		return "NotReady"
	case Yield:
		return "Yield"
	case Finished:
		return "Finished"
	case Fault:
		return "Fault"
	default:
		return "Unknown"
	}
}

// SwitchTo switches into the thread only if its wakeup bit is set,
// clearing the bit first. It blocks until the thread yields, finishes,
// or faults.
func (t *Thread) SwitchTo() SwitchReason {
	if !globalWakeups.Remove(t.id) {
		return NotReady
	}
	return t.switchInternal()
}

// ForceSwitchTo clears the wakeup bit unconditionally and switches
// regardless of whether it was set. Used for start-up, where every
// thread must be dispatched at least once to enter its trampoline.
func (t *Thread) ForceSwitchTo() SwitchReason {
	globalWakeups.Remove(t.id)
	return t.switchInternal()
}

func (t *Thread) switchInternal() SwitchReason {
	if t.finished {
		// Re-entering a finished thread would hang forever waiting on a
		// trampoline goroutine that already exited. The scheduler never
		// gives a finished thread a wakeup again; this path keeps
		// SwitchTo and ForceSwitchTo safe if one is woken or forced anyway.
		return Finished
	}

	setCurrentThread(t)
	if !t.started {
		t.started = true
		go t.run()
	} else {
		t.resume <- struct{}{}
	}
	msg := <-t.parked
	clearCurrentThread()

	fault := readAndClear(&threadHardFault) == 1
	fired := readAndClear(&syscallFired) == 1
	_ = fired // retained for symbol fidelity; the channel already carries nr.

	switch {
	case msg.fault || fault:
		t.finished = true
		return Fault
	case msg.firedSyscall && msg.nr == SyscallYield:
		return Yield
	case msg.firedSyscall && msg.nr == SyscallFinished:
		t.finished = true
		return Finished
	case msg.firedSyscall:
		return Unknown
	default:
		return Unknown
	}
}

// run is the thread's trampoline: it invokes the closure under
// AAPCS-by-value semantics (here, a plain Go call with the reconstructed
// payload) and then falls into thread_end, which loops issuing the
// terminal syscall so a closure that returns instead of yielding is
// contained rather than crashing the scheduler.
func (t *Thread) run() {
	defer func() {
		if r := recover(); r != nil {
			syscallFired.Store(0)
			threadHardFault.Store(1)
			t.parked <- switchMsg{fault: true}
		}
	}()

	t.closure.Fn(t.Payload())

	for {
		syscallFired.Store(1)
		t.parked <- switchMsg{firedSyscall: true, nr: SyscallFinished}
		<-t.resume
	}
}
