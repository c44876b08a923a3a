package infra

import (
	_ "unsafe"
)

// Spin helpers for optimistic CAS loops. procyield burns a few cycles
// on the core without giving up the P, osyield hands the OS thread back
// to the kernel scheduler.

//go:linkname procYield runtime.procyield
func procYield(cycles uint32)

func ProcYield(cycles uint32) {
	procYield(cycles)
}

//go:linkname osYield runtime.osyield
func osYield()

func OsYield() {
	osYield()
}
