package roles

import (
	"context"
	"log/slog"
	"sort"

	"burnish/internal/logging"
	"burnish/internal/transcript"
)

// Resolution methods, recorded on every outcome for decision logging.
const (
	MethodManual     = "manual"
	MethodCorrection = "correction"
	MethodStored     = "stored"
	MethodHeuristic  = "heuristic"
	MethodDefault    = "default"
)

// Resolution is the outcome for one speaker key.
type Resolution struct {
	Key    string
	Role   transcript.Role
	Source transcript.AssignmentSource
	Method string
	// Fresh marks assignments produced by this run that still need to be
	// persisted. Manual and previously stored assignments are never fresh.
	Fresh bool
}

// Resolver turns observed speaker tags into role resolutions, weighing
// stored assignments, correction hints, and the conversation heuristic in
// that order.
type Resolver struct {
	dict   *Dictionary
	logger *slog.Logger
}

// NewResolver builds a Resolver. A nil dictionary falls back to the built-in
// synonym table; a nil logger discards decision logs.
func NewResolver(dict *Dictionary, logger *slog.Logger) *Resolver {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Resolver{dict: dict, logger: logging.NewComponentLogger(logger, "roles")}
}

// Resolve maps every observed speaker tag to a role.
//
// tags is the raw speaker tags in first-appearance order; duplicates and
// tags normalizing to the same key collapse. existing holds the session's
// stored assignments. hints carries raw role labels from the correction
// reply, keyed by raw speaker tag. stats is keyed by normalized speaker key,
// as produced by Observe.
//
// Precedence per key: a stored manual assignment always wins; then a usable
// correction hint; then a stored inferred role; then, when exactly two keys
// remain open, the coach/client heuristic; everything else is unknown.
func (r *Resolver) Resolve(ctx context.Context, tags []string, existing []transcript.SpeakerRoleAssignment, hints map[string]string, stats map[string]Stats) map[string]Resolution {
	stored := make(map[string]transcript.SpeakerRoleAssignment, len(existing))
	for _, a := range existing {
		stored[a.SpeakerKey] = a
	}

	order := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		key := SpeakerKey(tag)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}

	hinted := r.hintRoles(ctx, hints)

	out := make(map[string]Resolution, len(order))
	var open []string
	for _, key := range order {
		if a, ok := stored[key]; ok && a.Source == transcript.SourceManual {
			out[key] = Resolution{Key: key, Role: a.Role, Source: transcript.SourceManual, Method: MethodManual}
			continue
		}
		if role, ok := hinted[key]; ok && role != transcript.RoleUnknown {
			out[key] = Resolution{Key: key, Role: role, Source: transcript.SourceInferred, Method: MethodCorrection, Fresh: true}
			continue
		}
		if a, ok := stored[key]; ok && a.Role != transcript.RoleUnknown {
			out[key] = Resolution{Key: key, Role: a.Role, Source: a.Source, Method: MethodStored}
			continue
		}
		open = append(open, key)
	}

	if len(open) == 2 {
		coach := InferCoach(
			Candidate{Key: open[0], Stats: stats[open[0]]},
			Candidate{Key: open[1], Stats: stats[open[1]]},
		)
		if coach != "" {
			for _, key := range open {
				role := transcript.RoleClient
				if key == coach {
					role = transcript.RoleCoach
				}
				out[key] = Resolution{Key: key, Role: role, Source: transcript.SourceInferred, Method: MethodHeuristic, Fresh: true}
			}
			open = nil
		}
	}

	for _, key := range open {
		out[key] = Resolution{Key: key, Role: transcript.RoleUnknown, Source: transcript.SourceInferred, Method: MethodDefault, Fresh: true}
	}

	logger := logging.WithContext(ctx, r.logger)
	for _, key := range order {
		res := out[key]
		attrs := append(
			logging.DecisionAttrs("role_resolution", string(res.Role), res.Method),
			logging.String(logging.FieldSpeakerKey, key),
		)
		logger.Info("speaker role resolved", logging.Args(attrs...)...)
	}
	return out
}

// hintRoles canonicalizes correction hint labels into roles keyed by
// normalized speaker key. An unrecognized label resolves to unknown and is
// logged, leaving the heuristic a chance at that speaker.
func (r *Resolver) hintRoles(ctx context.Context, hints map[string]string) map[string]transcript.Role {
	if len(hints) == 0 {
		return nil
	}
	tags := make([]string, 0, len(hints))
	for tag := range hints {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := make(map[string]transcript.Role, len(hints))
	for _, tag := range tags {
		key := SpeakerKey(tag)
		if key == "" {
			continue
		}
		role, ok := r.dict.CanonicalRole(hints[tag])
		if !ok {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "unrecognized role label", "role_label_unrecognized",
				logging.String(logging.FieldSpeakerKey, key),
				logging.String("label", hints[tag]),
				logging.String(logging.FieldImpact, "speaker resolved by heuristic or left unknown"),
			)
			out[key] = transcript.RoleUnknown
			continue
		}
		out[key] = role
	}
	return out
}
