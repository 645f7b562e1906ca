package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"burnish/internal/cleanup"
	"burnish/internal/config"
	"burnish/internal/correction"
	"burnish/internal/logging"
	"burnish/internal/roles"
	"burnish/internal/services"
	"burnish/internal/store"
	"burnish/internal/transcript"
)

// Corrector abstracts the correction model client.
type Corrector interface {
	Correct(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Branch names recorded as the enforcement progress phase.
const (
	BranchCorrection = "enforcing from correction"
	BranchFallback   = "enforcing from fallback"
)

// Summary reports what one run produced.
type Summary struct {
	Segments         int
	FallbackSegments int
	// Degraded marks a run that took the fallback branch for its text.
	Degraded bool
	// Persisted is false when the session vanished or changed mid-run and
	// the result was discarded.
	Persisted bool
	// Strategy is the reply parse strategy that succeeded, empty on the
	// fallback branch.
	Strategy string
}

// Pipeline executes the post-processing sequence for sessions.
type Pipeline struct {
	store     *store.Store
	corrector Corrector
	cache     *correction.Cache
	resolver  *roles.Resolver
	cfg       *config.Config
	logger    *slog.Logger
}

// New constructs a Pipeline. corrector may be nil, which forces every run
// onto the fallback branch; cache may be nil to disable reply memoization.
func New(cfg *config.Config, st *store.Store, corrector Corrector, cache *correction.Cache, dict *roles.Dictionary, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		corrector: corrector,
		cache:     cache,
		resolver:  roles.NewResolver(dict, logger),
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes one claimed session through to completion. The returned
// error is always an infrastructure failure (or context cancellation);
// collaborator and parse failures degrade onto the fallback branch instead.
func (p *Pipeline) Run(ctx context.Context, session *store.Session) (Summary, error) {
	ctx = services.WithSessionID(ctx, session.ID)
	logger := logging.WithContext(ctx, p.logger)

	language := firstNonEmpty(session.Language, p.cfg.Correction.Language)
	variant := firstNonEmpty(session.ScriptVariant, p.cfg.Correction.ScriptVariant)
	enforcer := cleanup.New(cleanup.Options{ScriptVariant: variant})

	// MERGING
	if err := p.store.UpdatePhase(ctx, session.ID, store.StatusMerging, "merging segments"); err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "merge", "update phase", err)
	}
	raw, err := p.store.RawSegments(ctx, session.ID)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "merge", "load raw segments", err)
	}
	pins, err := p.store.PinnedRoles(ctx, session.ID)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "merge", "load pinned roles", err)
	}
	merged := transcript.Merge(raw, transcript.MergeOptions{
		GapMS:       p.cfg.Correction.MergeGapMS,
		PinnedRoles: pins,
	})

	// REQUESTING and PARSING
	result, degraded := p.correct(ctx, logger, session, merged, language, variant)
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	// ENFORCING
	branch := BranchCorrection
	if degraded {
		branch = BranchFallback
	}
	if err := p.store.UpdatePhase(ctx, session.ID, store.StatusEnforcing, branch); err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "enforce", "update phase", err)
	}
	corrected, hints := correction.Apply(result, merged)

	// RESOLVING_ROLES
	if err := p.store.UpdatePhase(ctx, session.ID, store.StatusResolvingRoles, "resolving speaker roles"); err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "resolve", "update phase", err)
	}
	existing, err := p.store.Assignments(ctx, session.ID)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "resolve", "load assignments", err)
	}
	tags := make([]string, 0, len(merged))
	for _, seg := range merged {
		tags = append(tags, seg.SpeakerTag)
	}
	resolutions := p.resolver.Resolve(ctx, tags, existing, hints, roles.Observe(merged))
	for _, res := range resolutions {
		if !res.Fresh {
			continue
		}
		assignment := transcript.SpeakerRoleAssignment{
			SessionID:  session.ID,
			SpeakerKey: res.Key,
			Role:       res.Role,
			Source:     transcript.SourceInferred,
		}
		if err := p.store.UpsertAssignment(ctx, assignment); err != nil {
			return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "resolve", "persist assignment", err)
		}
	}

	cleaned := make([]transcript.CleanedSegment, 0, len(merged))
	fallbackCount := 0
	for i, seg := range merged {
		key := roles.SpeakerKey(seg.SpeakerTag)
		role := transcript.RoleUnknown
		origin := transcript.OriginAssignment
		if res, ok := resolutions[key]; ok {
			role = res.Role
		}
		// The merger never combines segments across differing pins, so the
		// first source seq speaks for the whole segment.
		if pin, ok := pins[seg.SourceSeqs[0]]; ok {
			role = pin
			origin = transcript.OriginOverride
		}
		if corrected[i].Quality == transcript.QualityFallback {
			fallbackCount++
		}
		cleaned = append(cleaned, transcript.CleanedSegment{
			Seq:        i + 1,
			StartMS:    seg.StartMS,
			EndMS:      seg.EndMS,
			SpeakerKey: key,
			Role:       role,
			RoleOrigin: origin,
			Text:       enforcer.Apply(corrected[i].Text),
			Quality:    corrected[i].Quality,
			SourceSeqs: seg.SourceSeqs,
		})
	}

	persisted, err := p.store.ReplaceCleanedSegments(ctx, session.ID, cleaned, len(raw))
	if err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "persist", "replace cleaned segments", err)
	}
	summary := Summary{
		Segments:         len(cleaned),
		FallbackSegments: fallbackCount,
		Degraded:         degraded,
		Persisted:        persisted,
		Strategy:         result.Strategy,
	}
	if !persisted {
		logger.Info("session changed mid-run; result discarded",
			logging.String(logging.FieldEventType, "pipeline_write_skipped"),
		)
		return summary, nil
	}

	if err := p.store.SetCompleted(ctx, session.ID, fallbackCount); err != nil {
		return Summary{}, services.Wrap(services.ErrTransient, "pipeline", "complete", "mark completed", err)
	}
	logger.Info("session completed",
		logging.String(logging.FieldEventType, "pipeline_completed"),
		logging.Int("segments", len(cleaned)),
		logging.Int("fallback_segments", fallbackCount),
		logging.Bool("degraded", degraded),
	)
	return summary, nil
}

// correct runs the REQUESTING and PARSING phases. The returned result is
// zero-valued (and degraded true) whenever the collaborator or its reply was
// unusable; correction.Apply turns that into per-segment fallback.
func (p *Pipeline) correct(ctx context.Context, logger *slog.Logger, session *store.Session, merged []transcript.MergedSegment, language, variant string) (correction.Result, bool) {
	if len(merged) == 0 {
		return correction.Result{}, false
	}
	if p.corrector == nil {
		return correction.Result{}, true
	}

	if err := p.store.UpdatePhase(ctx, session.ID, store.StatusRequesting, "awaiting correction"); err != nil {
		logger.Warn("phase update failed", logging.Args(logging.Error(err))...)
	}
	userPrompt := correction.BuildUserPrompt(merged, correction.Meta{Language: language, ScriptVariant: variant})
	cacheKey := correction.CacheKey(p.cfg.LLM.Model, userPrompt)

	reply, cached := p.cache.Get(ctx, cacheKey)
	if !cached {
		var err error
		reply, err = p.corrector.Correct(ctx, correction.SystemPrompt(), userPrompt)
		if err != nil {
			if ctx.Err() != nil {
				return correction.Result{}, true
			}
			logging.WarnWithContext(logger, "correction unavailable, using fallback path", "correction_degraded",
				logging.Error(err),
				logging.String(logging.FieldImpact, "transcript cleaned deterministically without model corrections"),
			)
			return correction.Result{}, true
		}
		p.cache.Put(ctx, cacheKey, reply)
	}

	if err := p.store.UpdatePhase(ctx, session.ID, store.StatusParsing, "parsing reply"); err != nil {
		logger.Warn("phase update failed", logging.Args(logging.Error(err))...)
	}
	result, err := correction.ParseReply(reply, len(merged))
	if err != nil {
		logging.WarnWithContext(logger, "correction reply unusable, using fallback path", "correction_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcript cleaned deterministically without model corrections"),
		)
		return correction.Result{}, true
	}
	logger.Info("correction reply parsed",
		logging.String(logging.FieldEventType, "correction_parsed"),
		logging.String(logging.FieldStrategy, result.Strategy),
		logging.Bool("cached", cached),
		logging.Int("utterances", len(result.Utterances)),
	)
	return result, !result.HasText()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
