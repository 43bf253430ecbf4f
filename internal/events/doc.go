// Package events defines the outcome stream produced by command dispatch
// and job tracking.
//
// Every event names the affected device and, for failures and warnings,
// carries a human-readable cause. The Stream type is append-only and safe
// for concurrent use:
//
//	stream := events.NewStream()
//	stream.OnEvent(func(e events.Event) {
//	    fmt.Println(e)
//	})
//
//	run, err := engine.Dispatch(ctx, op, devices, params)
//	...
//	run.Wait()
//	fmt.Printf("%+v\n", stream.Summary())
package events
