// Package a holds workload shapes the blockcall analyzer must judge.
package a

import (
	"os/exec"
	"sync"
	"time"
)

func sleepsOnWorker() {
	time.Sleep(10 * time.Millisecond) // want `call to time\.Sleep blocks the worker thread`
	_ = time.Now()
}

func waitsForGroup() {
	var wg sync.WaitGroup
	wg.Add(1)
	go wg.Done()
	wg.Wait() // want `call to \(\*sync\.WaitGroup\)\.Wait blocks the worker thread`
}

func waitsOnCond(mu *sync.Mutex) {
	cond := sync.NewCond(mu)
	cond.Wait() // want `call to \(\*sync\.Cond\)\.Wait blocks the worker thread`
}

func runsChild() error {
	cmd := exec.Command("true")
	return cmd.Run() // want `call to \(\*os/exec\.Cmd\)\.Run blocks the worker thread`
}

// Sleep shadows the flagged name but lives in this package.
func Sleep(d time.Duration) {}

func callsLocalSleep() {
	Sleep(time.Millisecond)
}
