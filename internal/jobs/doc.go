// Package jobs tracks asynchronous manager jobs.
//
// A Tracker polls one job on one device with the catalog's "show job"
// command until it observes a terminal status, a transport failure, or an
// unreadable response. Every observation is reported to an events.Sink:
//
//	FIN + OK        -> Succeeded
//	FIN + other     -> Failed (with the job's detail lines)
//	ACT + progress  -> Progress
//	anything else   -> Ongoing
//
// Trackers never retry and keep no state beyond their own run.
package jobs
