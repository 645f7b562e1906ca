package transcript

import "strings"

// MergeOptions tunes the pre-correction merge pass.
type MergeOptions struct {
	// GapMS is the maximum silence, in milliseconds, between two
	// same-speaker segments that still merges them.
	GapMS int64
	// PinnedRoles maps raw segment sequence numbers to manually pinned
	// roles. Two adjacent segments never merge when their pins differ,
	// including when only one of them is pinned.
	PinnedRoles map[int]Role
}

// Merge coalesces adjacent same-speaker raw segments whose silence gap is
// within the configured threshold. The input order is preserved, no segment
// is dropped, and every output segment records the raw sequence numbers it
// was built from. Empty input yields empty output.
func Merge(segments []RawSegment, opts MergeOptions) []MergedSegment {
	if len(segments) == 0 {
		return nil
	}

	out := make([]MergedSegment, 0, len(segments))
	for _, seg := range segments {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if mergeable(last, seg, opts) {
				last.EndMS = seg.EndMS
				last.Text = joinTexts(last.Text, seg.Text)
				last.Confidence = mergeConfidence(last.Confidence, seg.Confidence)
				last.SourceSeqs = append(last.SourceSeqs, seg.Seq)
				continue
			}
		}
		out = append(out, MergedSegment{
			StartMS:    seg.StartMS,
			EndMS:      seg.EndMS,
			SpeakerTag: seg.SpeakerTag,
			Text:       strings.TrimSpace(seg.Text),
			Confidence: seg.Confidence,
			SourceSeqs: []int{seg.Seq},
		})
	}
	return out
}

func mergeable(last *MergedSegment, seg RawSegment, opts MergeOptions) bool {
	if seg.SpeakerTag != last.SpeakerTag {
		return false
	}
	if seg.StartMS-last.EndMS > opts.GapMS {
		return false
	}
	if len(opts.PinnedRoles) > 0 {
		prevSeq := last.SourceSeqs[len(last.SourceSeqs)-1]
		prevPin, prevOK := opts.PinnedRoles[prevSeq]
		nextPin, nextOK := opts.PinnedRoles[seg.Seq]
		if prevOK != nextOK {
			return false
		}
		if prevOK && prevPin != nextPin {
			return false
		}
	}
	return true
}

func joinTexts(left, right string) string {
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return left + " " + right
	}
}

// mergeConfidence keeps the minimum of the reported confidences; zero
// (unreported) stays zero.
func mergeConfidence(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	if b < a {
		return b
	}
	return a
}
