package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

// BatchItem is one entry of a batch outcome. Exactly one of Result/Err is
// set; a failed entry is still well-formed so the caller renders it in place.
type BatchItem struct {
	Label  string  `json:"label"`
	Result *Result `json:"-"`
	Err    *Error  `json:"-"`
	Note   string  `json:"note,omitempty"`
}

// RunBatch submits one sub-request per shot label, sequentially and each
// independently. Providers rate-limit bulk image generation, so steady
// sequential submission is the policy here, not parallel fan-out. One failed
// entry never aborts the rest; the result always has one entry per label.
func RunBatch(ctx context.Context, log *logger.Logger, poller *Poller, provider Provider, cred Credential, base Request, shotList []string) []BatchItem {
	blog := log.With("component", "GenerationBatch", "provider", provider.ID())
	out := make([]BatchItem, 0, len(shotList))

	for _, label := range shotList {
		req := base
		req.Target = TargetShot
		req.Prompt = label
		if base.Prompt != "" {
			req.Prompt = fmt.Sprintf("%s, %s", base.Prompt, label)
		}
		if req.Variant == "" {
			req.Variant = ChooseVariant(QualityUnset, TargetShot)
		}

		result, err := Execute(ctx, poller, provider, cred, req)
		if err != nil {
			item := BatchItem{Label: label, Note: err.Error()}
			if ge, ok := asGenerationError(err); ok {
				item.Err = ge
				item.Note = ge.Message
			} else {
				item.Err = &Error{Code: CodeProviderOperation, Provider: provider.ID(), Message: err.Error(), Cause: err}
			}
			blog.Warn("Batch sub-request failed", "label", label, "error", err)
			out = append(out, item)
			continue
		}
		out = append(out, BatchItem{Label: label, Result: result})
	}

	return out
}

// Execute runs one request to completion: a synchronous result is returned
// as-is, an operation handle is driven through the poller, and a provider
// that produces neither is NoOutputProduced.
func Execute(ctx context.Context, poller *Poller, provider Provider, cred Credential, req Request) (*Result, error) {
	result, handle, err := provider.Generate(ctx, cred, req)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if result.ArtifactURL == "" && len(result.Artifact) == 0 {
			return nil, NewError(CodeNoOutputProduced, provider.ID(), "provider returned an empty result")
		}
		return result, nil
	}
	if handle == nil {
		return nil, NewError(CodeNoOutputProduced, provider.ID(), "provider returned neither result nor operation handle")
	}
	return poller.Wait(ctx, provider, cred, *handle)
}

func asGenerationError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
