package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

type PollConfig struct {
	Interval time.Duration
	Ceiling  time.Duration
}

func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: 5 * time.Second, Ceiling: 10 * time.Minute}
}

type Poller struct {
	log *logger.Logger
	cfg PollConfig
}

func NewPoller(log *logger.Logger, cfg PollConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig().Interval
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultPollConfig().Ceiling
	}
	return &Poller{
		log: log.With("component", "LROPoller"),
		cfg: cfg,
	}
}

// Wait drives a long-running operation to completion. Per-operation polls are
// strictly sequential; transport errors are retried silently until the
// ceiling; an operation-level error fails immediately; passing the ceiling
// fails with Timeout so no revision is ever left running past it. A completed
// operation without a payload is NoOutputProduced, not success.
func (p *Poller) Wait(ctx context.Context, provider Provider, cred Credential, op OperationHandle) (*Result, error) {
	deadline := time.Now().Add(p.cfg.Ceiling)
	polls := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Code: CodeTimeout, Provider: provider.ID(), Message: "context canceled while polling", Cause: err}
		}
		if !time.Now().Before(deadline) {
			p.log.Warn("Operation polling hit ceiling",
				"provider", provider.ID(),
				"operation_id", op.ID,
				"polls", polls,
				"ceiling", p.cfg.Ceiling,
			)
			return nil, NewError(CodeTimeout, provider.ID(), fmt.Sprintf("operation %s did not complete within %s", op.ID, p.cfg.Ceiling))
		}

		status, err := provider.Poll(ctx, cred, op)
		polls++
		switch {
		case err != nil && IsTransient(err):
			p.log.Debug("Transient poll failure, retrying",
				"provider", provider.ID(),
				"operation_id", op.ID,
				"error", err,
			)
		case err != nil:
			return nil, err
		case status == nil:
			// An empty response is a transport hiccup like any other;
			// retry until the ceiling.
			p.log.Debug("Empty poll response, retrying",
				"provider", provider.ID(),
				"operation_id", op.ID,
			)
		case status.Err != nil:
			return nil, status.Err
		case status.Done:
			if status.Result == nil || (status.Result.ArtifactURL == "" && len(status.Result.Artifact) == 0) {
				return nil, NewError(CodeNoOutputProduced, provider.ID(), fmt.Sprintf("operation %s completed without a result payload", op.ID))
			}
			return status.Result, nil
		}

		select {
		case <-ctx.Done():
			return nil, &Error{Code: CodeTimeout, Provider: provider.ID(), Message: "context canceled while polling", Cause: ctx.Err()}
		case <-time.After(p.cfg.Interval):
		}
	}
}
