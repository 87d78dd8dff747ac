package generation

import (
	"context"
	"testing"
	"time"
)

// labelSwitchProvider succeeds or fails per label.
type labelSwitchProvider struct {
	fakeProvider
	failLabels map[string]bool
}

func (p *labelSwitchProvider) Generate(ctx context.Context, cred Credential, req Request) (*Result, *OperationHandle, error) {
	for label := range p.failLabels {
		if containsLabel(req.Prompt, label) {
			return nil, nil, NewError(CodeProviderOperation, p.id, "rejected: "+label)
		}
	}
	return &Result{ArtifactURL: "https://cdn/" + req.Prompt + ".png", MimeType: "image/png", PromptEcho: req.Prompt}, nil, nil
}

func containsLabel(prompt, label string) bool {
	return len(prompt) >= len(label) && prompt[len(prompt)-len(label):] == label
}

func TestRunBatchPartialFailure(t *testing.T) {
	provider := &labelSwitchProvider{
		fakeProvider: fakeProvider{id: "img"},
		failLabels:   map[string]bool{"close-up": true},
	}
	poller := fastPoller(t, time.Second)

	items := RunBatch(context.Background(), testLogger(t), poller, provider, Credential{Key: "k"}, Request{BaseImageURL: "https://cdn/base.png"}, []string{"wide", "close-up"})

	if len(items) != 2 {
		t.Fatalf("items: want=2 got=%d", len(items))
	}
	if items[0].Label != "wide" || items[0].Result == nil || items[0].Err != nil {
		t.Fatalf("first item should succeed: %+v", items[0])
	}
	if items[1].Label != "close-up" || items[1].Result != nil {
		t.Fatalf("second item should fail: %+v", items[1])
	}
	if items[1].Err == nil || items[1].Err.Code != CodeProviderOperation {
		t.Fatalf("second item error: %+v", items[1].Err)
	}
	if items[1].Note == "" {
		t.Fatalf("failed item must carry a note")
	}
}

func TestRunBatchAllLabelsPresent(t *testing.T) {
	provider := &labelSwitchProvider{fakeProvider: fakeProvider{id: "img"}}
	poller := fastPoller(t, time.Second)

	labels := []string{"wide", "medium", "close-up", "over-shoulder"}
	items := RunBatch(context.Background(), testLogger(t), poller, provider, Credential{Key: "k"}, Request{}, labels)

	if len(items) != len(labels) {
		t.Fatalf("items: want=%d got=%d", len(labels), len(items))
	}
	for i, item := range items {
		if item.Label != labels[i] {
			t.Fatalf("item %d label: want=%q got=%q", i, labels[i], item.Label)
		}
	}
}

func TestRunBatchDrivesAsyncSubRequests(t *testing.T) {
	provider := &fakeProvider{
		id:        "vid",
		genHandle: &OperationHandle{ID: "op-a"},
		polls: []pollStep{
			{status: &OperationStatus{Done: true, Result: &Result{ArtifactURL: "https://cdn/a.mp4"}}},
		},
	}
	poller := fastPoller(t, time.Second)

	items := RunBatch(context.Background(), testLogger(t), poller, provider, Credential{Key: "k"}, Request{}, []string{"wide"})
	if len(items) != 1 || items[0].Result == nil {
		t.Fatalf("async sub-request should resolve via polling: %+v", items)
	}
}
