// Package dispatch fans an operation out to a set of devices.
//
// Each device gets its own task: render, send, classify, then either a
// terminal event or, for job-producing operations, an Enqueued event and a
// jobs.Tracker. A failure on one device never affects another.
package dispatch
