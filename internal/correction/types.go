package correction

// Strategy names identify which parse path produced a result; they flow into
// decision logs and tests.
const (
	StrategyStructured = "structured"
	StrategyTranscript = "transcript"
	StrategyLines      = "lines"
)

// Utterance is one (speaker, text) pair recovered from the model reply. The
// speaker is whatever label the reply used: an echoed tag, a role word, or a
// localized synonym. Role canonicalization happens downstream in the role
// resolver.
type Utterance struct {
	Speaker string
	Text    string
}

// Result is the parsed model reply.
type Result struct {
	// Strategy records which parse path produced this result.
	Strategy string
	// Speakers maps raw speaker labels from the reply's role map onto raw
	// role labels. May carry entries even when Utterances is empty: a usable
	// role classification survives a reply whose segment list is broken.
	Speakers map[string]string
	// Utterances is the ordered corrected transcript, empty when no strategy
	// recovered a segment list within count tolerance.
	Utterances []Utterance
}

// HasText reports whether the reply carried a usable corrected transcript.
func (r Result) HasText() bool {
	return len(r.Utterances) > 0
}

// countTolerance is the fraction by which the reply's segment count may
// deviate from the input count and still be considered the same transcript.
const countTolerance = 0.2

// withinTolerance reports whether got segments plausibly correspond to want
// input segments.
func withinTolerance(got, want int) bool {
	if want == 0 {
		return got == 0
	}
	slack := float64(want) * countTolerance
	diff := float64(got - want)
	if diff < 0 {
		diff = -diff
	}
	return diff <= slack
}
