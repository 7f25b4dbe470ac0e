// Package reminder implements the daily reminder cycle.
//
// A Scheduler owns a Registry of channels (chat destinations with a per-day
// "done" flag) and a TimeTable of times of day. Every day it arms one wait per
// time, and when a wait fires the Dispatcher delivers the reminder text to
// every channel that has not reported completion yet. Once all of the day's
// fires have completed (or were skipped because they were already past), the
// done flags are cleared and the loop sleeps until the rollover instant.
//
// # Clocks
//
// All instants are on the reference clock, which is UTC. Times of day are
// written in the source region's wall clock and shifted by a fixed offset
// (no daylight saving rules are applied).
//
// # Concurrency
//
// Control methods (AddChannel, MarkDone, SetTimes, Pause, ...) are safe to call
// from any goroutine while the loop runs. Dispatch reads the registry through
// copy-on-read snapshots, so a concurrent mutation never corrupts an in-flight
// fire. A new time table is picked up at the next cycle start; waits that are
// already armed keep their instants.
package reminder
