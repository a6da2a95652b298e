// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package sched implements a minimal cooperative multithreading kernel
// of the kind a single-core microcontroller firmware would run: a small
// fixed set of threads, each with its own stack, run user closures and
// yield control voluntarily via Yieldk. An interrupt handler marks
// threads runnable through WakeupThread/WakeupThreads, and RunThreads
// resumes them in round-robin order, parking whenever nothing is
// runnable.
//
// On real hardware this is built on the Cortex-M supervisor-call
// instruction and the two hardware stack pointers (MSP for the
// scheduler, PSP for whichever thread is live). This package models the
// same machinery on a host process: a Thread's "stack buffer" and
// "save area" are still real memory filled with the hardware's sentinel
// patterns, with the closure payload's excess words at the top of the
// stack buffer; the hardware frame is kept beside them as a value rather
// than written into the stack. The
// actual suspend/resume handoff -- what SVC and the assembly switch
// routine do on hardware -- is played by a pair of channels per thread.
// Exactly one thread's goroutine is ever runnable at a time; every other
// thread is parked on its resume channel, which is the host analogue of
// sitting stacked on PSP waiting for the next exception return.
//
// See WakeupSet for the runnable-thread bitset, Thread for the
// per-thread context and switch operation, RunThreads for the scheduler
// loop, and Mutex for the cooperative lock built on top of it.
package sched
