// Package sim provides the core process-and-resource kernel simulator for BioOS.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - process.go: Process lifecycle (created → ready → running → blocked/terminated) and state machine
//   - scheduler.go: The tick: preempt, unblock, order, grant, run, advance
//   - kernel.go: The facade a driver uses (Submit, Tick, RunUntilIdle, Kill, Snapshot, Shutdown)
//
// # Architecture
//
// Components, leaves first:
//   - Clock: discrete tick source
//   - ResourcePool: finite capacities per resource kind, atomic multi-kind grants
//   - ProcessTable: owns process records, enforces the state machine
//   - Scheduler: one process per tick, ordered by a Policy
//   - Kernel: composes the above; the only entry point
//
// Sub-packages:
//   - sim/trace/: decision trace recording
//   - sim/workload/: workload files, seeded generation and timed replay
//
// # Determinism
//
// Every ordering is total (policy keys, then arrival tick, then ID) and no
// map iteration order leaks into results. Two kernels fed the same
// submissions produce byte-identical Snapshot.JSON() output; the shared
// vectors in testdata/vectors.yaml pin that behaviour.
//
// # Key Interfaces
//   - Policy: order Ready candidates each tick
//   - EventHandler: observe lifecycle events
package sim
