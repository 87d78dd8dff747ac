package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/XrOne/studio-jenial-sub004/internal/generation"
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/repos"
	"github.com/XrOne/studio-jenial-sub004/internal/storage"
	"github.com/XrOne/studio-jenial-sub004/internal/timeline"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type GenerateInput struct {
	SegmentID        uuid.UUID  `json:"segment_id"`
	Provider         string     `json:"provider"`
	Prompt           string     `json:"prompt"`
	Instruction      string     `json:"instruction,omitempty"`
	BaseAssetID      *uuid.UUID `json:"base_asset_id,omitempty"`
	ParentRevisionID *uuid.UUID `json:"parent_revision_id,omitempty"`
	Quality          string     `json:"quality,omitempty"`
	// UserKey is the per-request BYOK credential. It is consulted only when
	// no server-managed key is configured for the provider and is never
	// persisted or logged.
	UserKey string `json:"-"`
	// QueueBehind waits for an in-flight generation on the same segment
	// instead of rejecting with SegmentBusy.
	QueueBehind bool `json:"queue_behind,omitempty"`
}

type BatchInput struct {
	SegmentID uuid.UUID `json:"segment_id"`
	Provider  string    `json:"provider"`
	Prompt    string    `json:"prompt"`
	// BaseAssetID is the base image every shot variant is derived from.
	BaseAssetID *uuid.UUID `json:"base_asset_id,omitempty"`
	ShotList    []string   `json:"shot_list"`
	UserKey     string     `json:"-"`
}

type BatchItemOutcome struct {
	Label   string      `json:"label"`
	AssetID *uuid.UUID  `json:"asset_id,omitempty"`
	URL     string      `json:"url,omitempty"`
	Error   *errorShape `json:"error,omitempty"`
}

// ProviderProbe tells a client what it must supply before generating.
// It never carries key material.
type ProviderProbe struct {
	Provider        string                  `json:"provider"`
	Capabilities    []generation.Capability `json:"capabilities"`
	HasServerKey    bool                    `json:"has_server_key"`
	RequiresUserKey bool                    `json:"requires_user_key"`
}

type errorShape struct {
	Code     generation.Code `json:"code"`
	Message  string          `json:"message"`
	Provider string          `json:"provider,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type GenerationService interface {
	Generate(ctx context.Context, input GenerateInput) (*types.Revision, error)
	GenerateBatch(ctx context.Context, input BatchInput) (*types.Revision, []BatchItemOutcome, error)
	Retry(ctx context.Context, revisionID uuid.UUID, userKey string) (*types.Revision, error)
	Reconcile(ctx context.Context) (int, error)
	Probe() []ProviderProbe
}

type generationService struct {
	log        *logger.Logger
	registry   *generation.Registry
	poller     *generation.Poller
	gate       *generation.SegmentGate
	selector   *storage.Selector
	serverKeys map[string]string
	projects   repos.ProjectRepo
	segments   repos.SegmentRepo
	revs       repos.RevisionRepo
	assets     repos.AssetRepo
	keyframes  repos.KeyframeRepo
	notifier   RevisionNotifier
	fetch      func(ctx context.Context, url string) ([]byte, error)
}

func NewGenerationService(
	log *logger.Logger,
	registry *generation.Registry,
	poller *generation.Poller,
	selector *storage.Selector,
	serverKeys map[string]string,
	projects repos.ProjectRepo,
	segments repos.SegmentRepo,
	revs repos.RevisionRepo,
	assets repos.AssetRepo,
	keyframes repos.KeyframeRepo,
	notifier RevisionNotifier,
) GenerationService {
	return &generationService{
		log:        log.With("service", "GenerationService"),
		registry:   registry,
		poller:     poller,
		gate:       generation.NewSegmentGate(),
		selector:   selector,
		serverKeys: serverKeys,
		projects:   projects,
		segments:   segments,
		revs:       revs,
		assets:     assets,
		keyframes:  keyframes,
		notifier:   notifier,
		fetch:      fetchArtifact,
	}
}

func fetchArtifact(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact fetch: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *generationService) Probe() []ProviderProbe {
	out := make([]ProviderProbe, 0, len(s.registry.IDs()))
	for _, id := range s.registry.IDs() {
		p, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		hasServer := strings.TrimSpace(s.serverKeys[id]) != ""
		out = append(out, ProviderProbe{
			Provider:        id,
			Capabilities:    p.Capabilities(),
			HasServerKey:    hasServer,
			RequiresUserKey: !hasServer,
		})
	}
	return out
}

func (s *generationService) Generate(ctx context.Context, input GenerateInput) (*types.Revision, error) {
	provider, err := s.registry.Get(input.Provider)
	if err != nil {
		return nil, err
	}
	segment, project, err := s.loadSegment(ctx, input.SegmentID)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(ctx, segment.ID, input.QueueBehind); err != nil {
		return nil, err
	}
	defer s.gate.Release(segment.ID)

	rev, err := s.openRevision(ctx, project, segment, provider.ID(), input.ParentRevisionID, input.BaseAssetID, map[string]any{
		"prompt":      input.Prompt,
		"instruction": input.Instruction,
		"quality":     input.Quality,
		"target":      generation.TargetRoot,
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, cred, err := s.run(ctx, project, provider, rev, input)
	if err != nil {
		return s.failRevision(ctx, project, rev, provider.ID(), err)
	}

	asset, err := s.storeArtifact(ctx, rev, provider.ID(), result)
	if err != nil {
		return s.failRevision(ctx, project, rev, provider.ID(), err)
	}

	metrics := map[string]any{
		"latency_ms":        time.Since(started).Milliseconds(),
		"provider":          provider.ID(),
		"variant":           string(generation.ChooseVariant(generation.Quality(input.Quality), generation.TargetRoot)),
		"credential_source": string(cred.Source),
	}
	rev, err = s.succeedRevision(ctx, project, segment, rev, asset, metrics)
	if err != nil {
		return nil, err
	}

	if _, err := s.keyframes.Create(ctx, nil, &types.Keyframe{
		RevisionID: rev.ID,
		AssetID:    asset.ID,
		AtSec:      segment.InSec,
		Role:       types.KeyframeRoleRoot,
	}); err != nil {
		s.log.Warn("Root keyframe create failed", "revisionID", rev.ID, "error", err)
	}
	return rev, nil
}

func (s *generationService) GenerateBatch(ctx context.Context, input BatchInput) (*types.Revision, []BatchItemOutcome, error) {
	provider, err := s.registry.Get(input.Provider)
	if err != nil {
		return nil, nil, err
	}
	if len(input.ShotList) == 0 {
		return nil, nil, fmt.Errorf("shot_list must not be empty")
	}
	segment, project, err := s.loadSegment(ctx, input.SegmentID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.acquire(ctx, segment.ID, false); err != nil {
		return nil, nil, err
	}
	defer s.gate.Release(segment.ID)

	rev, err := s.openRevision(ctx, project, segment, provider.ID(), nil, input.BaseAssetID, map[string]any{
		"prompt":    input.Prompt,
		"shot_list": input.ShotList,
		"target":    generation.TargetShot,
	})
	if err != nil {
		return nil, nil, err
	}

	cred, err := generation.ResolveCredential(s.serverKeys[provider.ID()], input.UserKey)
	if err != nil {
		failed, ferr := s.failRevision(ctx, project, rev, provider.ID(), err)
		return failed, nil, ferr
	}
	if err := s.markRunning(ctx, project, rev); err != nil {
		return nil, nil, err
	}

	baseReq := generation.Request{
		Prompt: input.Prompt,
		Target: generation.TargetShot,
	}
	if input.BaseAssetID != nil {
		base, berr := s.assets.GetByID(ctx, nil, *input.BaseAssetID)
		if berr != nil {
			failed, ferr := s.failRevision(ctx, project, rev, provider.ID(), berr)
			return failed, nil, ferr
		}
		if base == nil {
			failed, ferr := s.failRevision(ctx, project, rev, provider.ID(), &NotFoundError{Entity: "asset", ID: *input.BaseAssetID})
			return failed, nil, ferr
		}
		baseReq.BaseImageURL = base.URL
	}

	started := time.Now()
	items := generation.RunBatch(ctx, s.log, s.poller, provider, cred, baseReq, input.ShotList)

	outcomes := make([]BatchItemOutcome, 0, len(items))
	span := segment.OutSec - segment.InSec
	var firstAsset *types.Asset
	var firstErr error
	for i, item := range items {
		outcome := BatchItemOutcome{Label: item.Label}
		if item.Err != nil {
			outcome.Error = shapeOf(item.Err)
			if firstErr == nil {
				firstErr = item.Err
			}
		} else {
			asset, serr := s.storeArtifact(ctx, rev, provider.ID(), item.Result)
			if serr != nil {
				outcome.Error = shapeOf(serr)
				if firstErr == nil {
					firstErr = serr
				}
			} else {
				outcome.AssetID = &asset.ID
				outcome.URL = asset.URL
				atSec := segment.InSec + span*float64(i)/float64(len(items))
				if _, kerr := s.keyframes.Create(ctx, nil, &types.Keyframe{
					RevisionID: rev.ID,
					AssetID:    asset.ID,
					AtSec:      atSec,
					Role:       types.KeyframeRoleShot,
					Label:      item.Label,
				}); kerr != nil {
					s.log.Warn("Shot keyframe create failed", "revisionID", rev.ID, "label", item.Label, "error", kerr)
				}
				if firstAsset == nil {
					firstAsset = asset
				}
			}
		}
		if s.notifier != nil {
			s.notifier.BatchItemDone(project.ID, rev.ID, item.Label, outcome.Error == nil)
		}
		outcomes = append(outcomes, outcome)
	}

	// The batch as a whole succeeds when at least one shot did; the failed
	// entries stay visible per item.
	if firstAsset == nil {
		failed, ferr := s.failRevision(ctx, project, rev, provider.ID(), firstErr)
		return failed, outcomes, ferr
	}

	metricsItems, _ := json.Marshal(outcomes)
	metrics := map[string]any{
		"latency_ms": time.Since(started).Milliseconds(),
		"provider":   provider.ID(),
		"shots":      len(items),
		"items":      json.RawMessage(metricsItems),
	}
	rev, err = s.succeedRevision(ctx, project, segment, rev, firstAsset, metrics)
	if err != nil {
		return nil, outcomes, err
	}
	return rev, outcomes, nil
}

// Retry branches a new revision off an existing one and reruns it with the
// parent's prompt. The parent is untouched.
func (s *generationService) Retry(ctx context.Context, revisionID uuid.UUID, userKey string) (*types.Revision, error) {
	parent, err := s.revs.GetByID(ctx, nil, revisionID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, &NotFoundError{Entity: "revision", ID: revisionID}
	}

	var prompt struct {
		Prompt      string `json:"prompt"`
		Instruction string `json:"instruction"`
		Quality     string `json:"quality"`
	}
	if len(parent.PromptJSON) > 0 {
		if err := json.Unmarshal(parent.PromptJSON, &prompt); err != nil {
			return nil, fmt.Errorf("parent prompt_json unreadable: %w", err)
		}
	}

	parentID := parent.ID
	return s.Generate(ctx, GenerateInput{
		SegmentID:        parent.SegmentID,
		Provider:         parent.Provider,
		Prompt:           prompt.Prompt,
		Instruction:      prompt.Instruction,
		Quality:          prompt.Quality,
		BaseAssetID:      parent.OutputAssetID,
		ParentRevisionID: &parentID,
		UserKey:          userKey,
	})
}

// Reconcile repoints segments whose succeeded revision never became the
// active pointer, which happens when the process dies between the status
// write and the activation write. Locked segments are left alone.
func (s *generationService) Reconcile(ctx context.Context) (int, error) {
	orphans, err := s.revs.FindOrphanSucceeded(ctx, nil)
	if err != nil {
		return 0, err
	}
	repointed := 0
	for _, rev := range orphans {
		segment, err := s.segments.GetByID(ctx, nil, rev.SegmentID)
		if err != nil {
			return repointed, err
		}
		if segment == nil || segment.Locked || segment.ActiveRevisionID != nil {
			continue
		}
		if err := s.segments.SetActiveRevision(ctx, nil, segment.ID, &rev.ID); err != nil {
			return repointed, err
		}
		if s.notifier != nil {
			s.notifier.SegmentActivated(segment.ProjectID, segment.ID, rev.ID)
		}
		repointed++
	}
	return repointed, nil
}

func (s *generationService) acquire(ctx context.Context, segmentID uuid.UUID, queueBehind bool) error {
	if queueBehind {
		return s.gate.Acquire(ctx, segmentID)
	}
	if !s.gate.TryAcquire(segmentID) {
		return generation.NewError(generation.CodeSegmentBusy, "", "a generation is already running for this segment")
	}
	return nil
}

func (s *generationService) loadSegment(ctx context.Context, segmentID uuid.UUID) (*types.Segment, *types.Project, error) {
	segment, err := s.segments.GetByID(ctx, nil, segmentID)
	if err != nil {
		return nil, nil, err
	}
	if segment == nil {
		return nil, nil, &NotFoundError{Entity: "segment", ID: segmentID}
	}
	project, err := s.projects.GetByID(ctx, nil, segment.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, &NotFoundError{Entity: "project", ID: segment.ProjectID}
	}
	return segment, project, nil
}

func (s *generationService) openRevision(ctx context.Context, project *types.Project, segment *types.Segment, providerID string, parentID, baseAssetID *uuid.UUID, prompt map[string]any) (*types.Revision, error) {
	promptJSON, err := json.Marshal(prompt)
	if err != nil {
		return nil, err
	}
	rev, err := s.revs.Create(ctx, nil, &types.Revision{
		SegmentID:        segment.ID,
		ParentRevisionID: parentID,
		Provider:         providerID,
		Status:           types.RevisionStatusDraft,
		PromptJSON:       datatypes.JSON(promptJSON),
		BaseAssetID:      baseAssetID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusDraft, types.RevisionStatusQueued, nil); err != nil {
		return nil, err
	}
	rev.Status = types.RevisionStatusQueued
	if s.notifier != nil {
		s.notifier.RevisionQueued(project.ID, rev)
	}
	return rev, nil
}

func (s *generationService) markRunning(ctx context.Context, project *types.Project, rev *types.Revision) error {
	if err := s.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusQueued, types.RevisionStatusRunning, nil); err != nil {
		return err
	}
	rev.Status = types.RevisionStatusRunning
	if s.notifier != nil {
		s.notifier.RevisionRunning(project.ID, rev)
	}
	return nil
}

func (s *generationService) run(ctx context.Context, project *types.Project, provider generation.Provider, rev *types.Revision, input GenerateInput) (*generation.Result, generation.Credential, error) {
	cred, err := generation.ResolveCredential(s.serverKeys[provider.ID()], input.UserKey)
	if err != nil {
		return nil, generation.Credential{}, err
	}
	if err := s.markRunning(ctx, project, rev); err != nil {
		return nil, cred, err
	}

	req := generation.Request{
		Prompt:      input.Prompt,
		Instruction: input.Instruction,
		Target:      generation.TargetRoot,
		Variant:     generation.ChooseVariant(generation.Quality(input.Quality), generation.TargetRoot),
	}
	if input.BaseAssetID != nil {
		base, err := s.assets.GetByID(ctx, nil, *input.BaseAssetID)
		if err != nil {
			return nil, cred, err
		}
		if base == nil {
			return nil, cred, &NotFoundError{Entity: "asset", ID: *input.BaseAssetID}
		}
		req.BaseImageURL = base.URL
	}

	result, err := generation.Execute(ctx, s.poller, provider, cred, req)
	if err != nil {
		return nil, cred, err
	}
	return result, cred, nil
}

// storeArtifact lands the provider output on whichever storage backend is
// available and records it as an immutable asset owned by the revision.
func (s *generationService) storeArtifact(ctx context.Context, rev *types.Revision, providerID string, result *generation.Result) (*types.Asset, error) {
	data := result.Artifact
	if len(data) == 0 {
		fetched, err := s.fetch(ctx, result.ArtifactURL)
		if err != nil {
			return nil, generation.NewError(generation.CodeNoOutputProduced, providerID, fmt.Sprintf("artifact unreachable: %v", err))
		}
		data = fetched
	}

	in, err := storage.SniffContentType(storage.UploadInput{
		Body:        bytes.NewReader(data),
		Filename:    rev.ID.String() + extensionFor(result.MimeType),
		ContentType: result.MimeType,
	})
	if err != nil {
		return nil, err
	}
	stored, err := s.selector.Upload(ctx, in)
	if err != nil {
		return nil, err
	}

	kind := types.AssetKindImage
	if strings.HasPrefix(in.ContentType, "video/") {
		kind = types.AssetKindVideo
	}
	return s.assets.Create(ctx, nil, &types.Asset{
		Kind:            kind,
		StorageKey:      stored.Path,
		StorageProvider: stored.Provider,
		URL:             stored.PublicURL,
		Mime:            in.ContentType,
		SizeBytes:       stored.Size,
		OwnerRevisionID: rev.ID,
	})
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}

func (s *generationService) succeedRevision(ctx context.Context, project *types.Project, segment *types.Segment, rev *types.Revision, asset *types.Asset, metrics map[string]any) (*types.Revision, error) {
	metricsJSON, _ := json.Marshal(metrics)
	if err := s.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusSucceeded, map[string]interface{}{
		"output_asset_id": asset.ID,
		"metrics_json":    datatypes.JSON(metricsJSON),
	}); err != nil {
		return nil, err
	}
	rev, err := s.revs.GetByID(ctx, nil, rev.ID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.RevisionSucceeded(project.ID, rev)
	}

	// The lock is re-read at activation time: a lock applied while the
	// provider was running still holds. A locked segment keeps its current
	// take; the succeeded revision stays available for manual activation.
	current, serr := s.segments.GetByID(ctx, nil, segment.ID)
	if serr != nil || current == nil {
		s.log.Error("Segment re-read before activation failed, reconciliation will repoint", "segmentID", segment.ID, "revisionID", rev.ID, "error", serr)
		return rev, nil
	}
	if !current.Locked {
		if err := s.segments.SetActiveRevision(ctx, nil, segment.ID, &rev.ID); err != nil {
			s.log.Error("Activation failed after success, reconciliation will repoint", "segmentID", segment.ID, "revisionID", rev.ID, "error", err)
		} else if s.notifier != nil {
			s.notifier.SegmentActivated(project.ID, segment.ID, rev.ID)
		}
	}
	return rev, nil
}

// failRevision lands the classified error on the revision and returns the
// original failure to the caller.
func (s *generationService) failRevision(ctx context.Context, project *types.Project, rev *types.Revision, providerID string, cause error) (*types.Revision, error) {
	shape := classify(cause, providerID)
	errorJSON, _ := json.Marshal(shape)

	// Failures before dispatch are still sitting in queued; walk them
	// through running so the lifecycle stays strict.
	if rev.Status == types.RevisionStatusQueued {
		if err := s.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusQueued, types.RevisionStatusRunning, nil); err == nil {
			rev.Status = types.RevisionStatusRunning
		}
	}
	if err := s.revs.TransitionStatus(ctx, nil, rev.ID, types.RevisionStatusRunning, types.RevisionStatusFailed, map[string]interface{}{
		"error_json": datatypes.JSON(errorJSON),
	}); err != nil {
		s.log.Error("Failed to record revision failure", "revisionID", rev.ID, "error", err)
	}

	failed, err := s.revs.GetByID(ctx, nil, rev.ID)
	if err != nil || failed == nil {
		failed = rev
		failed.Status = types.RevisionStatusFailed
	}
	if s.notifier != nil {
		s.notifier.RevisionFailed(project.ID, failed)
	}
	return failed, cause
}

func shapeOf(err error) *errorShape {
	shape := classify(err, "")
	return &shape
}

// classify maps any failure in the pipeline onto the stable error code
// surface that lands in error_json.
func classify(err error, providerID string) errorShape {
	var ge *generation.Error
	if errors.As(err, &ge) {
		provider := ge.Provider
		if provider == "" {
			provider = providerID
		}
		return errorShape{Code: ge.Code, Message: ge.Message, Provider: provider, Payload: ge.Payload}
	}

	var rateErr *timeline.RateMismatchError
	if errors.As(err, &rateErr) {
		return errorShape{Code: generation.CodeRateMismatch, Message: err.Error()}
	}
	var overlapErr *timeline.OverlapError
	if errors.As(err, &overlapErr) {
		return errorShape{Code: generation.CodeTimelineOverlap, Message: err.Error()}
	}
	var noStorage *storage.NoProviderAvailableError
	if errors.As(err, &noStorage) {
		return errorShape{Code: generation.CodeNoStorageProvider, Message: err.Error()}
	}
	var upload *storage.UploadError
	if errors.As(err, &upload) {
		return errorShape{Code: generation.CodeUploadFailed, Message: err.Error(), Provider: upload.Provider}
	}
	var cycle *repos.RevisionCycleError
	if errors.As(err, &cycle) {
		return errorShape{Code: generation.CodeRevisionCycle, Message: err.Error()}
	}
	return errorShape{Code: generation.CodeInternal, Message: err.Error(), Provider: providerID}
}
