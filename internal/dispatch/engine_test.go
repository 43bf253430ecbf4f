package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/jobs"
	"github.com/muurk/fwfleet/internal/panapi"
)

const (
	okResponse     = `<response status="success"><result>Command succeeded</result></response>`
	jobResponse    = `<response status="success"><result><msg><line>Download job enqueued with jobid 42</line></msg><job>42</job></result></response>`
	noJobResponse  = `<response status="success"><result><msg>queued</msg></result></response>`
	jobFinishedOK  = `<response status="success"><result><job><id>42</id><status>FIN</status><result>OK</result><progress>100</progress></job></result></response>`
	authFailedBody = `<response status="error"><result><msg>Authentication failed</msg></result></response>`
)

// fakeManager answers per target serial and records every request
type fakeManager struct {
	mu       sync.Mutex
	commands map[string]func(cmd string) ([]byte, error)
	requests []request
}

type request struct {
	cmd    string
	target string
}

func newFakeManager() *fakeManager {
	return &fakeManager{commands: make(map[string]func(string) ([]byte, error))}
}

func (m *fakeManager) on(serial string, fn func(cmd string) ([]byte, error)) {
	m.commands[serial] = fn
}

func (m *fakeManager) Send(ctx context.Context, cmd, target string) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, request{cmd: cmd, target: target})
	fn := m.commands[target]
	m.mu.Unlock()

	if fn == nil {
		return []byte(okResponse), nil
	}
	return fn(cmd)
}

func (m *fakeManager) Requests() []request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]request(nil), m.requests...)
}

func reply(body string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) { return []byte(body), nil }
}

var (
	alpha   = fleet.Device{Serial: "007051000000001", Hostname: "fw-alpha"}
	bravo   = fleet.Device{Serial: "007051000000002", Hostname: "fw-bravo"}
	charlie = fleet.Device{Serial: "007051000000003", Hostname: "fw-charlie"}
)

func newTestEngine(sender panapi.Sender) (*Engine, *events.Stream) {
	stream := events.NewStream()
	engine := NewEngine(sender, stream)
	engine.TrackerOptions = jobs.Options{Interval: time.Millisecond, MaxPolls: 20}
	return engine, stream
}

func mustOp(t *testing.T, key string) *catalog.Operation {
	t.Helper()
	op, ok := catalog.MustLoad().Get(key)
	if !ok {
		t.Fatalf("catalog has no %q", key)
	}
	return op
}

func TestDispatch_RebootWithOneTimeout(t *testing.T) {
	manager := newFakeManager()
	manager.on(bravo.Serial, func(string) ([]byte, error) {
		return nil, &panapi.Error{Type: panapi.ErrTypeTimeout, Message: "Request timed out", Target: bravo.Serial}
	})
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyReboot),
		[]fleet.Device{alpha, bravo, charlie}, catalog.Params{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	if len(manager.Requests()) != 3 {
		t.Errorf("requests = %d, want 3", len(manager.Requests()))
	}
	if run.Trackers() != 0 {
		t.Errorf("Trackers() = %d, non-job operations never spawn trackers", run.Trackers())
	}

	summary := stream.Summary()
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("Summary() = %+v, want 2 succeeded, 1 failed", summary)
	}

	failed := stream.ForDevice(bravo.Serial)
	if len(failed) != 1 || failed[0].Kind != events.KindFailed {
		t.Fatalf("bravo events = %v", failed)
	}
	if !panapi.IsTimeout(failed[0].Err) {
		t.Errorf("bravo error = %v, want timeout", failed[0].Err)
	}
	if !strings.Contains(failed[0].String(), "fw-bravo") {
		t.Errorf("failure line %q should name the device", failed[0].String())
	}
}

func TestDispatch_DownloadJobLifecycle(t *testing.T) {
	manager := newFakeManager()
	manager.on(alpha.Serial, func(cmd string) ([]byte, error) {
		if strings.Contains(cmd, "<jobs>") {
			return []byte(jobFinishedOK), nil
		}
		return []byte(jobResponse), nil
	})
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyDownload),
		[]fleet.Device{alpha}, catalog.Params{Version: "10.2.3"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	reqs := manager.Requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %v, want dispatch + one poll", reqs)
	}
	if !strings.Contains(reqs[0].cmd, "<version>10.2.3</version>") {
		t.Errorf("dispatch cmd = %q", reqs[0].cmd)
	}
	if reqs[1].cmd != "<show><jobs><id>42</id></jobs></show>" || reqs[1].target != alpha.Serial {
		t.Errorf("poll request = %+v", reqs[1])
	}

	evs := stream.Events()
	if len(evs) != 2 || evs[0].Kind != events.KindEnqueued || evs[1].Kind != events.KindSucceeded {
		t.Fatalf("events = %v, want Enqueued then Succeeded", evs)
	}
	if evs[0].JobID != "42" || evs[1].JobID != "42" {
		t.Errorf("job IDs = %q, %q", evs[0].JobID, evs[1].JobID)
	}
	if run.Trackers() != 1 {
		t.Errorf("Trackers() = %d, want 1", run.Trackers())
	}
	if got := run.Jobs(); len(got) != 1 || got[0].State != jobs.StateSucceeded {
		t.Errorf("Jobs() = %+v", got)
	}
}

func TestDispatch_NoJobReturned(t *testing.T) {
	manager := newFakeManager()
	manager.on(alpha.Serial, reply(noJobResponse))
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyInstall),
		[]fleet.Device{alpha}, catalog.Params{Version: "10.2.3"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	evs := stream.Events()
	if len(evs) != 1 || evs[0].Kind != events.KindFailed {
		t.Fatalf("events = %v, want one failure", evs)
	}
	if !panapi.IsNoJobError(evs[0].Err) {
		t.Errorf("error = %v, want no-job error", evs[0].Err)
	}
	if run.Trackers() != 0 {
		t.Errorf("Trackers() = %d, want 0", run.Trackers())
	}
}

func TestDispatch_MissingParameter(t *testing.T) {
	manager := newFakeManager()
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyDownload),
		[]fleet.Device{alpha, bravo}, catalog.Params{})
	if !catalog.IsMissingParameter(err) {
		t.Fatalf("Dispatch() error = %v, want missing parameter", err)
	}
	if run != nil {
		t.Error("Dispatch() should not return a run on error")
	}
	if len(manager.Requests()) != 0 {
		t.Errorf("requests = %d, want none", len(manager.Requests()))
	}
	if len(stream.Events()) != 0 {
		t.Errorf("events = %v, want none", stream.Events())
	}
}

func TestDispatch_AuthFailureIsDistinguished(t *testing.T) {
	manager := newFakeManager()
	manager.on(alpha.Serial, reply(authFailedBody))
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyCheck),
		[]fleet.Device{alpha}, catalog.Params{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	evs := stream.Events()
	if len(evs) != 1 || evs[0].Kind != events.KindFailed {
		t.Fatalf("events = %v", evs)
	}
	if !panapi.IsAuthError(evs[0].Err) {
		t.Errorf("error = %v, want authentication failure", evs[0].Err)
	}
}

func TestDispatch_ManagerScopeRejected(t *testing.T) {
	engine, _ := newTestEngine(newFakeManager())

	_, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyDevices),
		[]fleet.Device{alpha}, catalog.Params{})
	if err == nil {
		t.Error("Dispatch() should reject manager-scope operations")
	}
}

func TestDispatch_EmptyDeviceSet(t *testing.T) {
	manager := newFakeManager()
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyReboot), nil, catalog.Params{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	if len(manager.Requests()) != 0 || len(stream.Events()) != 0 {
		t.Error("an empty device set should produce no requests or events")
	}
}

func TestDispatch_ConcurrencyLimit(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	manager := newFakeManager()
	devices := make([]fleet.Device, 0, 10)
	for i := 0; i < 10; i++ {
		d := fleet.Device{Serial: "00705100000010" + string(rune('0'+i))}
		devices = append(devices, d)
		manager.on(d.Serial, func(string) ([]byte, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxSeen {
				maxSeen = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return []byte(okResponse), nil
		})
	}

	engine, stream := newTestEngine(manager)
	engine.Concurrency = 3

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyReboot), devices, catalog.Params{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	if maxSeen > 3 {
		t.Errorf("max in-flight = %d, want <= 3", maxSeen)
	}
	if stream.Count(events.KindSucceeded) != 10 {
		t.Errorf("succeeded = %d, want 10", stream.Count(events.KindSucceeded))
	}
}

func TestDispatch_EnqueuedPrecedesTrackerEvents(t *testing.T) {
	manager := newFakeManager()
	for _, d := range []fleet.Device{alpha, bravo} {
		manager.on(d.Serial, func(cmd string) ([]byte, error) {
			if strings.Contains(cmd, "<jobs>") {
				return []byte(jobFinishedOK), nil
			}
			return []byte(jobResponse), nil
		})
	}
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyDownload),
		[]fleet.Device{alpha, bravo}, catalog.Params{Version: "11.0.4-h1"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	for _, d := range []fleet.Device{alpha, bravo} {
		evs := stream.ForDevice(d.Serial)
		if len(evs) != 2 || evs[0].Kind != events.KindEnqueued || evs[1].Kind != events.KindSucceeded {
			t.Errorf("%s events = %v", d.Hostname, evs)
		}
	}
	if run.ID == "" {
		t.Error("run should carry an ID")
	}
}

func TestDispatch_NonJobOperationIgnoresJobInResponse(t *testing.T) {
	for _, key := range []string{catalog.KeyReboot, catalog.KeyCheck} {
		t.Run(key, func(t *testing.T) {
			manager := newFakeManager()
			manager.on(alpha.Serial, reply(jobResponse))
			engine, stream := newTestEngine(manager)

			run, err := engine.Dispatch(context.Background(), mustOp(t, key),
				[]fleet.Device{alpha}, catalog.Params{})
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			run.Wait()

			if run.Trackers() != 0 {
				t.Errorf("Trackers() = %d, want 0", run.Trackers())
			}
			if n := stream.Count(events.KindEnqueued); n != 0 {
				t.Errorf("Enqueued events = %d, want 0", n)
			}
			if n := stream.Count(events.KindSucceeded); n != 1 {
				t.Errorf("Succeeded events = %d, want 1", n)
			}
			if len(manager.Requests()) != 1 {
				t.Errorf("requests = %d, want 1 (no job polling)", len(manager.Requests()))
			}
		})
	}
}

func TestDispatch_DuplicateSerialsSentOnce(t *testing.T) {
	manager := newFakeManager()
	engine, stream := newTestEngine(manager)

	run, err := engine.Dispatch(context.Background(), mustOp(t, catalog.KeyReboot),
		[]fleet.Device{alpha, bravo, {Serial: alpha.Serial}, bravo}, catalog.Params{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	run.Wait()

	if len(run.Devices) != 2 {
		t.Errorf("Run.Devices = %v, want 2 devices", run.Devices)
	}

	sent := make(map[string]int)
	for _, r := range manager.Requests() {
		sent[r.target]++
	}
	if sent[alpha.Serial] != 1 || sent[bravo.Serial] != 1 {
		t.Errorf("requests per target = %v, want one each", sent)
	}
	if summary := stream.Summary(); summary.Succeeded != 2 {
		t.Errorf("Summary() = %+v, want 2 succeeded", summary)
	}
}
