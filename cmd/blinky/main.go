// Command blinky is a host-runnable stand-in for
// examples/nrf52832/src/main.rs: one thread toggles a simulated pin on
// every wakeup, driven by a time.Ticker instead of a configured SysTick
// exception. The pin alternates exactly once per tick, and the
// scheduler spends the overwhelming majority of its time parked rather
// than spinning.
package main

import (
	"log"
	"time"

	sched "github.com/SamP20/cortex-m-scheduling-go"
)

func main() {
	log.Println("started!")

	pin := false
	ticks := 0

	stack := make([]uint32, 64)
	th, err := sched.NewThread(stack, sched.Closure{Fn: func([]byte) {
		for {
			pin = !pin
			ticks++
			log.Printf("pin=%v (tick %d)\n", pin, ticks)
			sched.Yieldk()
		}
	}})
	if err != nil {
		log.Fatalf("thread creation failed: %v", err)
	}

	// Stands in for the board's SysTick handler installed into the
	// vector table: an interrupt context that only ever calls
	// WakeupThread, never touches thread state directly.
	go func() {
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for range t.C {
			sched.WakeupThread(th.ID())
		}
	}()

	sched.RunThreads([]*sched.Thread{th})
}
