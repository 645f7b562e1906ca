package correction

import (
	"burnish/internal/roles"
	"burnish/internal/transcript"
)

// Corrected is the post-correction text for one merged segment, tagged with
// the quality marker that ends up on the persisted cleaned segment.
type Corrected struct {
	Text    string
	Quality transcript.Quality
}

// Apply maps a parse result onto the merged segments it was produced from.
//
// Corrected text is trusted only on an exact count match; the model is a
// content hint, not a contract carrier, so anything else keeps each
// segment's own text on the fallback quality. The returned hint map carries
// raw role labels keyed by raw speaker tag: the reply's explicit speaker map
// first, supplemented by positional labels whenever the reply relabeled an
// exactly-aligned utterance with something other than its input tag.
func Apply(result Result, segments []transcript.MergedSegment) ([]Corrected, map[string]string) {
	hints := make(map[string]string, len(result.Speakers))
	for tag, label := range result.Speakers {
		hints[tag] = label
	}

	out := make([]Corrected, len(segments))
	exact := len(result.Utterances) == len(segments)
	for i, seg := range segments {
		if !exact {
			out[i] = Corrected{Text: seg.Text, Quality: transcript.QualityFallback}
			continue
		}
		u := result.Utterances[i]
		out[i] = Corrected{Text: u.Text, Quality: transcript.QualityCorrected}
		if u.Speaker == "" || roles.SpeakerKey(u.Speaker) == roles.SpeakerKey(seg.SpeakerTag) {
			continue
		}
		if _, ok := hints[seg.SpeakerTag]; !ok {
			hints[seg.SpeakerTag] = u.Speaker
		}
	}
	if len(hints) == 0 {
		return out, nil
	}
	return out, hints
}
