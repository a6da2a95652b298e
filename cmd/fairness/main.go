// Command fairness demonstrates round-robin fairness: two threads each
// increment their own counter and yield; a single simulated SysTick wakes both
// threads every tick, and round-robin dispatch keeps their counters in
// lockstep.
package main

import (
	"log"
	"time"

	sched "github.com/SamP20/cortex-m-scheduling-go"
)

func main() {
	log.Println("started!")

	var counters [2]int

	makeWorker := func(slot int) sched.Closure {
		return sched.Closure{Fn: func([]byte) {
			for {
				counters[slot]++
				sched.Yieldk()
			}
		}}
	}

	th0, err := sched.NewThread(make([]uint32, 64), makeWorker(0))
	if err != nil {
		log.Fatalf("thread 0 creation failed: %v", err)
	}
	th1, err := sched.NewThread(make([]uint32, 64), makeWorker(1))
	if err != nil {
		log.Fatalf("thread 1 creation failed: %v", err)
	}

	go func() {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for range t.C {
			sched.WakeupThreads(1<<th0.ID() | 1<<th1.ID())
			log.Printf("counters: %v\n", counters)
		}
	}()

	sched.RunThreads([]*sched.Thread{th0, th1})
}
