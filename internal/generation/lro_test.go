package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

// fakeProvider replays a scripted sequence of poll outcomes.
type fakeProvider struct {
	id        string
	caps      []Capability
	genResult *Result
	genHandle *OperationHandle
	genErr    error

	polls     []pollStep
	pollCount int
}

type pollStep struct {
	status *OperationStatus
	err    error
}

func (f *fakeProvider) ID() string { return f.id }
func (f *fakeProvider) Capabilities() []Capability {
	if f.caps == nil {
		return []Capability{CapabilityPreview, CapabilityGenerateVideo, CapabilityBatchVariants}
	}
	return f.caps
}

func (f *fakeProvider) Generate(ctx context.Context, cred Credential, req Request) (*Result, *OperationHandle, error) {
	return f.genResult, f.genHandle, f.genErr
}

func (f *fakeProvider) Poll(ctx context.Context, cred Credential, op OperationHandle) (*OperationStatus, error) {
	if f.pollCount >= len(f.polls) {
		// keep replaying the final step
		last := f.polls[len(f.polls)-1]
		f.pollCount++
		return last.status, last.err
	}
	step := f.polls[f.pollCount]
	f.pollCount++
	return step.status, step.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func fastPoller(t *testing.T, ceiling time.Duration) *Poller {
	t.Helper()
	return NewPoller(testLogger(t), PollConfig{Interval: time.Millisecond, Ceiling: ceiling})
}

func TestPollerSuccessAfterRetries(t *testing.T) {
	provider := &fakeProvider{
		id: "vid",
		polls: []pollStep{
			{status: &OperationStatus{Done: false}},
			{err: NewError(CodeProviderTransport, "vid", "connection reset")},
			{status: &OperationStatus{Done: true, Result: &Result{ArtifactURL: "https://cdn/x.mp4", MimeType: "video/mp4"}}},
		},
	}

	result, err := fastPoller(t, time.Second).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ArtifactURL != "https://cdn/x.mp4" {
		t.Fatalf("artifact url: got %q", result.ArtifactURL)
	}
	if provider.pollCount != 3 {
		t.Fatalf("polls: want=3 got=%d", provider.pollCount)
	}
}

func TestPollerTimeoutFiresOnceAndStopsPolling(t *testing.T) {
	provider := &fakeProvider{
		id:    "vid",
		polls: []pollStep{{status: &OperationStatus{Done: false}}},
	}

	_, err := fastPoller(t, 20*time.Millisecond).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	var ge *Error
	if !errors.As(err, &ge) || ge.Code != CodeTimeout {
		t.Fatalf("want Timeout, got %v", err)
	}

	settled := provider.pollCount
	time.Sleep(20 * time.Millisecond)
	if provider.pollCount != settled {
		t.Fatalf("polling continued after timeout: %d -> %d", settled, provider.pollCount)
	}
}

func TestPollerOperationErrorIsTerminal(t *testing.T) {
	provider := &fakeProvider{
		id: "vid",
		polls: []pollStep{
			{status: &OperationStatus{Err: NewError(CodeProviderOperation, "vid", "content policy")}},
		},
	}

	_, err := fastPoller(t, time.Second).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	var ge *Error
	if !errors.As(err, &ge) || ge.Code != CodeProviderOperation {
		t.Fatalf("want ProviderOperationError, got %v", err)
	}
	if provider.pollCount != 1 {
		t.Fatalf("polls after terminal error: want=1 got=%d", provider.pollCount)
	}
}

func TestPollerDoneWithoutPayloadIsNoOutput(t *testing.T) {
	provider := &fakeProvider{
		id:    "vid",
		polls: []pollStep{{status: &OperationStatus{Done: true}}},
	}

	_, err := fastPoller(t, time.Second).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	var ge *Error
	if !errors.As(err, &ge) || ge.Code != CodeNoOutputProduced {
		t.Fatalf("want NoOutputProduced, got %v", err)
	}
}

func TestPollerTransientErrorsRetryUntilCeiling(t *testing.T) {
	provider := &fakeProvider{
		id:    "vid",
		polls: []pollStep{{err: NewError(CodeProviderTransport, "vid", "503")}},
	}

	_, err := fastPoller(t, 15*time.Millisecond).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	var ge *Error
	if !errors.As(err, &ge) || ge.Code != CodeTimeout {
		t.Fatalf("transient errors past ceiling must become Timeout, got %v", err)
	}
	if provider.pollCount < 2 {
		t.Fatalf("expected silent retries before ceiling, polls=%d", provider.pollCount)
	}
}

func TestPollerEmptyResponseIsRetried(t *testing.T) {
	provider := &fakeProvider{
		id: "vid",
		polls: []pollStep{
			{},
			{},
			{status: &OperationStatus{Done: true, Result: &Result{ArtifactURL: "https://cdn/y.mp4", MimeType: "video/mp4"}}},
		},
	}

	result, err := fastPoller(t, time.Second).Wait(context.Background(), provider, Credential{Key: "k"}, OperationHandle{ID: "op-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ArtifactURL != "https://cdn/y.mp4" {
		t.Fatalf("artifact url: got %q", result.ArtifactURL)
	}
	if provider.pollCount != 3 {
		t.Fatalf("polls: want=3 got=%d", provider.pollCount)
	}
}
