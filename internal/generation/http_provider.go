package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

// HTTPProviderConfig describes one JSON-over-HTTP generation vendor. The wire
// shape is the small neutral contract below; vendor specifics stay behind
// their own gateways.
type HTTPProviderConfig struct {
	ID           string
	BaseURL      string
	Capabilities []Capability
	// TimeoutSec bounds a single HTTP call, not the whole operation.
	TimeoutSec int
	MaxRetries int
}

type httpProvider struct {
	log        *logger.Logger
	id         string
	baseURL    string
	caps       []Capability
	httpClient *http.Client
	maxRetries int
}

func NewHTTPProvider(log *logger.Logger, cfg HTTPProviderConfig) (Provider, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("provider %q: base URL required", cfg.ID)
	}
	timeoutSec := cfg.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 120
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	caps := cfg.Capabilities
	if len(caps) == 0 {
		caps = []Capability{CapabilityPreview}
	}
	return &httpProvider{
		log:        log.With("service", "HTTPProvider", "provider", cfg.ID),
		id:         cfg.ID,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		caps:       caps,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

func (p *httpProvider) ID() string                 { return p.id }
func (p *httpProvider) Capabilities() []Capability { return append([]Capability(nil), p.caps...) }

type generateWire struct {
	Prompt       string         `json:"prompt,omitempty"`
	Instruction  string         `json:"instruction,omitempty"`
	BaseImageURL string         `json:"base_image_url,omitempty"`
	Target       string         `json:"target,omitempty"`
	Variant      string         `json:"variant,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
}

type resultWire struct {
	URL        string `json:"url,omitempty"`
	Data       []byte `json:"data,omitempty"`
	Mime       string `json:"mime,omitempty"`
	PromptEcho string `json:"prompt_echo,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

type operationWire struct {
	ID      string `json:"id"`
	PollURL string `json:"poll_url,omitempty"`
}

type generateRespWire struct {
	Result    *resultWire     `json:"result,omitempty"`
	Operation *operationWire  `json:"operation,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type pollRespWire struct {
	Done   bool            `json:"done"`
	Result *resultWire     `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func (p *httpProvider) Generate(ctx context.Context, cred Credential, req Request) (*Result, *OperationHandle, error) {
	body := generateWire{
		Prompt:       req.Prompt,
		Instruction:  req.Instruction,
		BaseImageURL: req.BaseImageURL,
		Target:       string(req.Target),
		Variant:      string(req.Variant),
		Options:      req.Options,
	}

	var resp generateRespWire
	if err := p.postJSON(ctx, cred, p.baseURL+"/v1/generate", body, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.Error) > 0 {
		return nil, nil, &Error{
			Code:     CodeProviderOperation,
			Provider: p.id,
			Message:  "provider rejected the generation request",
			Payload:  resp.Error,
		}
	}
	if resp.Operation != nil {
		handle := OperationHandle{ID: resp.Operation.ID, PollURL: resp.Operation.PollURL}
		if handle.PollURL == "" {
			handle.PollURL = fmt.Sprintf("%s/v1/operations/%s", p.baseURL, handle.ID)
		}
		return nil, &handle, nil
	}
	if resp.Result == nil {
		return nil, nil, NewError(CodeNoOutputProduced, p.id, "response carried neither result nor operation")
	}
	return fromResultWire(resp.Result), nil, nil
}

func (p *httpProvider) Poll(ctx context.Context, cred Credential, op OperationHandle) (*OperationStatus, error) {
	var resp pollRespWire
	if err := p.getJSON(ctx, cred, op.PollURL, &resp); err != nil {
		return nil, err
	}
	status := &OperationStatus{Done: resp.Done}
	if len(resp.Error) > 0 {
		status.Err = &Error{
			Code:     CodeProviderOperation,
			Provider: p.id,
			Message:  fmt.Sprintf("operation %s failed", op.ID),
			Payload:  resp.Error,
		}
		return status, nil
	}
	if resp.Result != nil {
		status.Result = fromResultWire(resp.Result)
	}
	return status, nil
}

func fromResultWire(w *resultWire) *Result {
	return &Result{
		ArtifactURL: w.URL,
		Artifact:    w.Data,
		MimeType:    w.Mime,
		PromptEcho:  w.PromptEcho,
		RequestID:   w.RequestID,
	}
}

func (p *httpProvider) postJSON(ctx context.Context, cred Credential, url string, in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return p.do(ctx, cred, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

func (p *httpProvider) getJSON(ctx context.Context, cred Credential, url string, out any) error {
	return p.do(ctx, cred, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}, out)
}

// do performs one logical call with bounded retries on transport failures.
// 401/403 map to CredentialInvalid so the UI can prompt instead of looping.
func (p *httpProvider) do(ctx context.Context, cred Credential, build func() (*http.Request, error), out any) error {
	backoff := 500 * time.Millisecond
	var last error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return &Error{Code: CodeProviderTransport, Provider: p.id, Message: "request canceled", Cause: ctx.Err()}
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+cred.Key)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			last = &Error{Code: CodeProviderTransport, Provider: p.id, Message: "transport failure", Cause: err}
			if !isRetryableNetErr(err) || attempt == p.maxRetries {
				return last
			}
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			last = &Error{Code: CodeProviderTransport, Provider: p.id, Message: "read response", Cause: readErr}
			if attempt == p.maxRetries {
				return last
			}
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return NewError(CodeCredentialInvalid, p.id, fmt.Sprintf("provider rejected the credential (http %d)", resp.StatusCode))
		case isRetryableHTTP(resp.StatusCode):
			last = NewError(CodeProviderTransport, p.id, fmt.Sprintf("http %d", resp.StatusCode))
			if attempt == p.maxRetries {
				return last
			}
			time.Sleep(backoff)
			backoff *= 2
			continue
		case resp.StatusCode >= 400:
			return &Error{
				Code:     CodeProviderOperation,
				Provider: p.id,
				Message:  fmt.Sprintf("http %d", resp.StatusCode),
				Payload:  json.RawMessage(body),
			}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return &Error{Code: CodeProviderTransport, Provider: p.id, Message: "decode response", Cause: err}
		}
		return nil
	}
	return last
}

func isRetryableHTTP(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableNetErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}
