package generation

import (
	"context"
	"fmt"
)

type Capability string

const (
	CapabilityPreview       Capability = "preview"
	CapabilityRetouch       Capability = "retouch"
	CapabilityBatchVariants Capability = "batchVariants"
	CapabilityGenerateVideo Capability = "generateVideo"
)

type Request struct {
	Prompt       string
	Instruction  string
	BaseImageURL string
	Target       Target
	Variant      Variant
	Options      map[string]any
}

type Result struct {
	// ArtifactURL or Artifact must be set; a completed operation with
	// neither is NoOutputProduced, never success.
	ArtifactURL string
	Artifact    []byte
	MimeType    string
	PromptEcho  string
	RequestID   string
}

// OperationHandle is what an asynchronous provider returns instead of a
// result: an opaque id plus where to poll it.
type OperationHandle struct {
	ID      string
	PollURL string
}

type OperationStatus struct {
	Done   bool
	Result *Result
	// Err is an explicit operation-level failure reported by the provider;
	// it stops polling immediately.
	Err *Error
}

// Provider is the closed capability surface every generation vendor plugs in
// behind. Synchronous providers return a Result from Generate; long-running
// ones return an OperationHandle and are driven through Poll.
type Provider interface {
	ID() string
	Capabilities() []Capability
	Generate(ctx context.Context, cred Credential, req Request) (*Result, *OperationHandle, error)
	Poll(ctx context.Context, cred Credential, op OperationHandle) (*OperationStatus, error)
}

// Registry is an explicit value built at process start and passed by
// reference; providers are dispatched by id lookup, never by shape-checking,
// and the registry is not mutated after wiring.
type Registry struct {
	order     []string
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) error {
	if p == nil || p.ID() == "" {
		return fmt.Errorf("provider with empty id")
	}
	if _, dup := r.providers[p.ID()]; dup {
		return fmt.Errorf("provider %q already registered", p.ID())
	}
	r.providers[p.ID()] = p
	r.order = append(r.order, p.ID())
	return nil
}

func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, NewError(CodeProviderNotFound, id, fmt.Sprintf("no provider registered under %q", id))
	}
	return p, nil
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func HasCapability(p Provider, c Capability) bool {
	for _, got := range p.Capabilities() {
		if got == c {
			return true
		}
	}
	return false
}
