package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/pack"
	"github.com/docpack/pipekit/processor"
	"github.com/docpack/pipekit/wire"
)

func TestConfigureRequiresAddress(t *testing.T) {
	p := New()
	err := p.Configure(processor.Config{})
	assertErrorCode(t, err, errors.ErrCodeConfiguration)
}

func TestConfigureTestHandleNeedsNoAddress(t *testing.T) {
	p := New()
	p.SetTestHandle(newFakeEndpoint())
	if err := p.Configure(processor.Config{}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
}

func TestConfigureRejectsUnknownKey(t *testing.T) {
	p := New()
	err := p.Configure(processor.Config{"adress": "http://localhost:8080"})
	assertErrorCode(t, err, errors.ErrCodeConfiguration)
}

func TestConfigureRejectsUnknownFormat(t *testing.T) {
	p := New()
	p.SetTestHandle(newFakeEndpoint())
	err := p.Configure(processor.Config{"input_format": "xml"})
	assertErrorCode(t, err, errors.ErrCodeConfiguration)
}

func TestConfigureRejectsNegativeRetryBudget(t *testing.T) {
	p := New()
	p.SetTestHandle(newFakeEndpoint())
	err := p.Configure(processor.Config{
		"handshake_retry": map[string]any{"attempts": -1},
	})
	assertErrorCode(t, err, errors.ErrCodeConfiguration)
}

func TestInitializeAdoptsEndpointSchemas(t *testing.T) {
	fake := newFakeEndpoint()
	fake.expect = pack.NewSchema().Add("Token", "pos")
	fake.output = pack.NewSchema().Add(pack.TypeUtterance, pack.AttrSpeaker)

	p := initialized(t, fake, processor.Config{
		"expected_name": fake.name,
		"validation":    map[string]any{"type_check": true},
	})

	if got := p.State(); got != StateReady {
		t.Fatalf("state = %s, want %s", got, StateReady)
	}
	if !p.ExpectedSchema().Equal(fake.expect) {
		t.Errorf("expected schema = %v, want endpoint's %v", p.ExpectedSchema(), fake.expect)
	}
	if !p.OutputSchema().Equal(fake.output) {
		t.Errorf("output schema = %v, want endpoint's %v", p.OutputSchema(), fake.output)
	}
}

func TestInitializeWithoutTypeCheckSkipsSchemas(t *testing.T) {
	fake := newFakeEndpoint()
	fake.expect = pack.NewSchema().Add("Token", "pos")
	fake.output = pack.NewSchema().Add(pack.TypeUtterance)

	p := initialized(t, fake, processor.Config{})

	if len(p.ExpectedSchema()) != 0 {
		t.Errorf("expected schema = %v, want empty without type_check", p.ExpectedSchema())
	}
	if len(p.OutputSchema()) != 0 {
		t.Errorf("output schema = %v, want empty without type_check", p.OutputSchema())
	}
}

func TestInitializeNameMismatchNeverDispatches(t *testing.T) {
	fake := newFakeEndpoint()
	p := New()
	p.SetTestHandle(fake)
	if err := p.Configure(processor.Config{"expected_name": "other_service"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err := p.Initialize(context.Background())
	appErr := assertErrorCode(t, err, errors.ErrCodeRemoteValidation)
	if appErr.Details["want"] != "other_service" || appErr.Details["got"] != fake.name {
		t.Errorf("details = %v, want expected/actual names", appErr.Details)
	}
	if got := p.State(); got != StateFailed {
		t.Errorf("state = %s, want %s", got, StateFailed)
	}

	// A failed handshake permanently blocks dispatch.
	perr := p.Process(context.Background(), pack.New())
	assertErrorCode(t, perr, errors.ErrCodeInvalidState)
	if fake.processCalls.Load() != 0 {
		t.Errorf("process calls = %d, want 0 after failed handshake", fake.processCalls.Load())
	}
}

func TestInitializeFormatMismatch(t *testing.T) {
	fake := newFakeEndpoint() // advertises pack
	p := New()
	p.SetTestHandle(fake)
	if err := p.Configure(processor.Config{"input_format": "text"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err := p.Initialize(context.Background())
	assertErrorCode(t, err, errors.ErrCodeRemoteValidation)
}

func TestInitializeHandshakeErrorStatus(t *testing.T) {
	fake := newFakeEndpoint()
	fake.serviceStatus = http.StatusInternalServerError
	p := New()
	p.SetTestHandle(fake)
	if err := p.Configure(processor.Config{}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err := p.Initialize(context.Background())
	appErr := assertErrorCode(t, err, errors.ErrCodeRemoteValidation)
	if appErr.Cause == nil {
		t.Error("handshake failure should carry the transport error as cause")
	}
	if got := p.State(); got != StateFailed {
		t.Errorf("state = %s, want %s", got, StateFailed)
	}
}

func TestInitializeConnectionRefusedKeepsClassification(t *testing.T) {
	server := httptest.NewServer(newFakeEndpoint())
	url := server.URL
	server.Close()

	p := New()
	if err := p.Configure(processor.Config{"address": url}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err := p.Initialize(context.Background())
	assertErrorCode(t, err, errors.ErrCodeConnectionFailed)
}

func TestInitializeRetriesHandshake(t *testing.T) {
	fake := newFakeEndpoint()
	fake.failServiceTimes = 2

	p := New()
	p.SetTestHandle(fake)
	err := p.Configure(processor.Config{
		"handshake_retry": map[string]any{"attempts": 3, "backoff": "1ms"},
	})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := fake.serviceCalls.Load(); got != 3 {
		t.Errorf("service calls = %d, want 3", got)
	}
	if got := p.State(); got != StateReady {
		t.Errorf("state = %s, want %s", got, StateReady)
	}
}

func TestInitializeSingleAttemptByDefault(t *testing.T) {
	fake := newFakeEndpoint()
	fake.failServiceTimes = 1

	p := New()
	p.SetTestHandle(fake)
	if err := p.Configure(processor.Config{}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if err := p.Initialize(context.Background()); err == nil {
		t.Fatal("Initialize() should fail without a retry budget")
	}
	if got := fake.serviceCalls.Load(); got != 1 {
		t.Errorf("service calls = %d, want 1", got)
	}
}

func TestProcessReplacesPackInPlace(t *testing.T) {
	fake := newFakeEndpoint()
	p := initialized(t, fake, processor.Config{"expected_name": fake.name})

	pk := pack.New()
	pack.AddUtterance(pk, "hello", pack.SpeakerUser)

	if err := p.Process(context.Background(), pk); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	reply, ok := pack.LastUtterance(pk, pack.SpeakerAI)
	if !ok {
		t.Fatal("expected the endpoint's reply on the local pack")
	}
	if got := pk.TextOf(reply); got != "Processed." {
		t.Errorf("reply = %q, want %q", got, "Processed.")
	}
	if _, ok := pk.Manifest()[pack.TypeUtterance]; !ok {
		t.Error("expected the endpoint's manifest records on the local pack")
	}
	if got := p.State(); got != StateReady {
		t.Errorf("state = %s, want %s after dispatch", got, StateReady)
	}
}

func TestProcessTextFormat(t *testing.T) {
	fake := newFakeEndpoint()
	fake.format = wire.FormatText

	p := initialized(t, fake, processor.Config{})

	pk := pack.New()
	pk.SetText("raw input")

	if err := p.Process(context.Background(), pk); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if fake.lastPayload != "raw input" {
		t.Errorf("payload = %q, want the raw text", fake.lastPayload)
	}
	if _, ok := pack.LastUtterance(pk, pack.SpeakerAI); !ok {
		t.Error("expected the endpoint's reply on the local pack")
	}
}

func TestProcessTransportErrorLeavesPackUntouched(t *testing.T) {
	fake := newFakeEndpoint()
	fake.processStatus = http.StatusInternalServerError

	p := initialized(t, fake, processor.Config{})

	pk := pack.New()
	pack.AddUtterance(pk, "hello", pack.SpeakerUser)
	wantText := pk.Text()
	wantLen := pk.Len()

	err := p.Process(context.Background(), pk)
	assertErrorCode(t, err, errors.ErrCodeTransport)

	if pk.Text() != wantText || pk.Len() != wantLen {
		t.Error("a failed dispatch must not change the pack")
	}
	if got := p.State(); got != StateFailed {
		t.Errorf("state = %s, want %s", got, StateFailed)
	}

	perr := p.Process(context.Background(), pack.New())
	assertErrorCode(t, perr, errors.ErrCodeInvalidState)
}

func TestProcessMalformedResult(t *testing.T) {
	fake := newFakeEndpoint()
	fake.resultOverride = "not a pack"

	p := initialized(t, fake, processor.Config{})

	pk := pack.New()
	err := p.Process(context.Background(), pk)
	assertErrorCode(t, err, errors.ErrCodeTransport)
}

func TestProcessBeforeInitialize(t *testing.T) {
	p := New()
	p.SetTestHandle(newFakeEndpoint())
	if err := p.Configure(processor.Config{}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err := p.Process(context.Background(), pack.New())
	assertErrorCode(t, err, errors.ErrCodeInvalidState)
}

func TestProcessConcurrentPacks(t *testing.T) {
	fake := newFakeEndpoint()
	p := initialized(t, fake, processor.Config{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pk := pack.New()
			pk.SetText("hello")
			errs[i] = p.Process(context.Background(), pk)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Process() %d error = %v", i, err)
		}
	}
	if got := p.State(); got != StateReady {
		t.Errorf("state = %s, want %s after all dispatches", got, StateReady)
	}
	if got := fake.processCalls.Load(); got != 8 {
		t.Errorf("process calls = %d, want 8", got)
	}
}

func TestNameReportsExpectedService(t *testing.T) {
	p := New()
	p.SetTestHandle(newFakeEndpoint())
	if err := p.Configure(processor.Config{"expected_name": "eliza_service"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if got := p.Name(); got != "eliza_service" {
		t.Errorf("Name() = %q, want the expected service name", got)
	}
	if got := New().Name(); got != Kind {
		t.Errorf("Name() = %q, want %q before configuration", got, Kind)
	}
}

// initialized builds a remote processor in test mode against fake,
// configured with cfg, with a completed handshake.
func initialized(t *testing.T, fake *fakeEndpoint, cfg processor.Config) *Processor {
	t.Helper()
	p := New()
	p.SetTestHandle(fake)
	if err := p.Configure(cfg); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return p
}

func assertErrorCode(t *testing.T, err error, want errors.ErrorCode) *errors.AppError {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("error = %v, want *errors.AppError", err)
	}
	if appErr.Code != want {
		t.Fatalf("error code = %s, want %s", appErr.Code, want)
	}
	return appErr
}

// fakeEndpoint is a minimal wire-protocol server: a handshake route and
// a process route that appends an ai utterance to the pack.
type fakeEndpoint struct {
	name   string
	format wire.InputFormat
	expect pack.Schema
	output pack.Schema

	// serviceStatus / processStatus force an error status on the route.
	serviceStatus int
	processStatus int
	// failServiceTimes fails the first N handshake calls with 503.
	failServiceTimes int32
	// resultOverride replaces the serialized result payload.
	resultOverride string

	serviceCalls atomic.Int32
	processCalls atomic.Int32

	mu          sync.Mutex
	lastAuth    string
	lastPayload string
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{name: "echo_service", format: wire.FormatPack}
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastAuth = r.Header.Get("Authorization")
	f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == wire.PathService:
		n := f.serviceCalls.Add(1)
		if f.serviceStatus != 0 {
			http.Error(w, "handshake refused", f.serviceStatus)
			return
		}
		if n <= f.failServiceTimes {
			http.Error(w, "still starting", http.StatusServiceUnavailable)
			return
		}
		respondData(w, wire.ServiceInfo{
			ServiceName: f.name,
			InputFormat: f.format,
			Expectation: f.expect,
			Output:      f.output,
		})

	case r.Method == http.MethodPost && r.URL.Path == wire.PathProcess:
		f.processCalls.Add(1)
		if f.processStatus != 0 {
			http.Error(w, "process refused", f.processStatus)
			return
		}
		var req wire.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.lastPayload = req.Payload
		f.mu.Unlock()

		var pk *pack.Pack
		if f.format == wire.FormatText {
			pk = pack.New()
			pk.SetText(req.Payload)
		} else {
			var err error
			pk, err = pack.Deserialize(req.Payload)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		pack.AddUtterance(pk, "Processed.", pack.SpeakerAI)
		pk.Record(pack.TypeUtterance, pack.AttrSpeaker)

		result := f.resultOverride
		if result == "" {
			var err error
			result, err = pk.Serialize()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		respondData(w, wire.ProcessResponse{Result: result})

	default:
		http.NotFound(w, r)
	}
}

func respondData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}
