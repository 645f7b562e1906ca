package transcript

// Role is the canonical conversational role assigned to a speaker.
type Role string

const (
	RoleCoach   Role = "coach"
	RoleClient  Role = "client"
	RoleUnknown Role = "unknown"
)

// Valid reports whether the role is one of the canonical values.
func (r Role) Valid() bool {
	switch r {
	case RoleCoach, RoleClient, RoleUnknown:
		return true
	default:
		return false
	}
}

// Quality marks whether a cleaned segment's text passed through the LLM
// correction or the deterministic fallback path.
type Quality string

const (
	QualityCorrected Quality = "corrected"
	QualityFallback  Quality = "fallback"
)

// AssignmentSource records how a speaker role assignment was produced.
type AssignmentSource string

const (
	SourceManual   AssignmentSource = "manual"
	SourceInferred AssignmentSource = "inferred"
)

// RoleOrigin records where a cleaned segment's role came from.
type RoleOrigin string

const (
	// OriginAssignment means the role was looked up from the session's
	// speaker role assignments.
	OriginAssignment RoleOrigin = "assignment"
	// OriginOverride means the role was pinned on this segment by hand and
	// survives reprocessing.
	OriginOverride RoleOrigin = "override"
)

// RawSegment is one diarized utterance as delivered by the ASR engine.
// Raw segments are immutable once ingested.
type RawSegment struct {
	Seq        int
	StartMS    int64
	EndMS      int64
	SpeakerTag string
	Text       string
	// Confidence is the engine's reported confidence, or zero when the
	// export did not carry one.
	Confidence float64
}

// MergedSegment is a run of raw segments coalesced for correction. It is a
// transient shape: merged segments are never persisted.
type MergedSegment struct {
	StartMS    int64
	EndMS      int64
	SpeakerTag string
	Text       string
	Confidence float64
	// SourceSeqs lists the raw segment sequence numbers folded into this
	// segment, in order.
	SourceSeqs []int
}

// CleanedSegment is the persisted, exported unit of transcript.
type CleanedSegment struct {
	Seq        int
	StartMS    int64
	EndMS      int64
	SpeakerKey string
	Role       Role
	RoleOrigin RoleOrigin
	Text       string
	Quality    Quality
	SourceSeqs []int
	Edited     bool
}

// SpeakerRoleAssignment binds a normalized speaker key to a role within one
// session. Manual assignments always win over inferred ones.
type SpeakerRoleAssignment struct {
	SessionID  string
	SpeakerKey string
	Role       Role
	Source     AssignmentSource
}
