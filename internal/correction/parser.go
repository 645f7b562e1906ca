package correction

import (
	"regexp"
	"strings"

	"burnish/internal/services"
	"burnish/internal/services/llm"
)

// ParseReply decodes a model reply into a Result, working through the ranked
// strategies: structured JSON, reconstructed transcript with inline speaker
// prefixes, then per-line label extraction. A strategy is accepted when it
// recovers a segment count within tolerance of expectedCount. When no
// strategy does, a role map recovered from a structurally broken JSON reply
// is still returned; with neither, the error is a tagged parse failure that
// routes the pipeline onto the deterministic fallback path.
func ParseReply(reply string, expectedCount int) (Result, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Result{}, services.Wrap(services.ErrParse, "correction", "parse_reply", "empty reply", nil)
	}

	if structured, decoded := parseStructured(reply); decoded {
		if structured.HasText() && withinTolerance(len(structured.Utterances), expectedCount) {
			return structured, nil
		}
		// The reply is JSON, so the plain-text strategies have nothing to
		// work with. A role map alone still rescues the speaker
		// classification, so it is not a parse failure.
		if len(structured.Speakers) > 0 {
			return Result{Strategy: StrategyStructured, Speakers: structured.Speakers}, nil
		}
		return Result{}, services.Wrap(services.ErrParse, "correction", "parse_reply", "json reply segment count implausible", nil)
	}

	if result, ok := parseTranscript(reply); ok && withinTolerance(len(result.Utterances), expectedCount) {
		return result, nil
	}

	if result, ok := parseLines(reply); ok && withinTolerance(len(result.Utterances), expectedCount) {
		return result, nil
	}

	return Result{}, services.Wrap(services.ErrParse, "correction", "parse_reply", "no strategy matched reply", nil)
}

type structuredReply struct {
	Speakers map[string]string `json:"speakers"`
	Segments []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"segments"`
}

// parseStructured attempts the strict JSON contract, tolerating code fences
// and prose wrapped around the payload. The second result reports whether a
// JSON object with at least one recognized field decoded at all.
func parseStructured(reply string) (Result, bool) {
	var decoded structuredReply
	if err := llm.DecodeLLMJSON(reply, &decoded); err != nil {
		return Result{}, false
	}
	if len(decoded.Speakers) == 0 && len(decoded.Segments) == 0 {
		return Result{}, false
	}
	result := Result{Strategy: StrategyStructured}
	if len(decoded.Speakers) > 0 {
		result.Speakers = make(map[string]string, len(decoded.Speakers))
		for tag, label := range decoded.Speakers {
			tag = strings.TrimSpace(tag)
			label = strings.TrimSpace(label)
			if tag == "" || label == "" {
				continue
			}
			result.Speakers[tag] = label
		}
	}
	for _, seg := range decoded.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Utterances = append(result.Utterances, Utterance{
			Speaker: strings.TrimSpace(seg.Speaker),
			Text:    text,
		})
	}
	return result, true
}

// plainPrefix matches an undecorated line-leading speaker label followed by
// an ASCII or fullwidth colon: "Speaker_1:", "教練：", "Coach:". The label is
// short and plain, which keeps ordinary prose with embedded colons from
// matching; decorated labels (list numbers, brackets, markdown) belong to
// the per-line strategy.
var plainPrefix = regexp.MustCompile(`^([\p{L}\p{N}_ ]{1,32}?)\s*[:：]\s*(.*)$`)

// speakerPrefix is the permissive form used by the per-line strategy after
// decoration stripping.
var speakerPrefix = regexp.MustCompile(`^([^:：\n]{1,32}?)\s*[:：]\s*(.*)$`)

// parseTranscript treats the reply as a reconstructed conversation: lines
// carrying a plain speaker prefix open an utterance, following unprefixed
// lines extend it, and consecutive utterances by the same speaker fold
// together so the output splits exactly on speaker-change boundaries.
func parseTranscript(reply string) (Result, bool) {
	lines := strings.Split(reply, "\n")
	prefixed := 0
	for _, line := range lines {
		if m := plainPrefix.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			prefixed++
		}
	}
	// A reconstructed transcript has speaker prefixes on most content lines;
	// a lone match is far more likely prose with a colon in it.
	if prefixed < 2 {
		return Result{}, false
	}

	result := Result{Strategy: StrategyTranscript}
	var current *Utterance
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := plainPrefix.FindStringSubmatch(trimmed); m != nil {
			speaker := strings.TrimSpace(m[1])
			body := strings.TrimSpace(m[2])
			if current != nil && sameSpeaker(current.Speaker, speaker) {
				current.Text = joinBody(current.Text, body)
				continue
			}
			result.Utterances = append(result.Utterances, Utterance{Speaker: speaker, Text: body})
			current = &result.Utterances[len(result.Utterances)-1]
			continue
		}
		if current != nil {
			current.Text = joinBody(current.Text, trimmed)
		}
	}

	compactUtterances(&result)
	return result, len(result.Utterances) > 0
}

// parseLines extracts one utterance per "label: text" line, skipping
// anything that does not match. Unlike parseTranscript it never merges
// adjacent lines, so fragmented single-utterance-per-line replies keep their
// count.
func parseLines(reply string) (Result, bool) {
	result := Result{Strategy: StrategyLines}
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(stripDecoration(line))
		if trimmed == "" {
			continue
		}
		m := speakerPrefix.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		result.Utterances = append(result.Utterances, Utterance{Speaker: cleanLabel(m[1]), Text: text})
	}
	return result, len(result.Utterances) > 0
}

// stripDecoration removes list markers, markdown emphasis, and bracket
// wrapping that models habitually add around transcript lines.
func stripDecoration(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "->•*# \t")
	trimmed = listNumber.ReplaceAllString(trimmed, "")
	trimmed = strings.ReplaceAll(trimmed, "**", "")
	return trimmed
}

var listNumber = regexp.MustCompile(`^\d{1,4}[.)、]\s*`)

// cleanLabel strips bracket wrapping from a speaker label: "[Coach]",
// "【教練】", "(Speaker_1)".
func cleanLabel(label string) string {
	return strings.TrimFunc(strings.TrimSpace(label), func(r rune) bool {
		switch r {
		case '[', ']', '【', '】', '(', ')', '（', '）', '<', '>', '"', '\'':
			return true
		}
		return false
	})
}

func sameSpeaker(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func joinBody(left, right string) string {
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

// compactUtterances drops utterances whose body ended up empty, which happens
// when a prefix line had no content and no continuation followed it.
func compactUtterances(result *Result) {
	kept := result.Utterances[:0]
	for _, u := range result.Utterances {
		if strings.TrimSpace(u.Text) == "" {
			continue
		}
		kept = append(kept, u)
	}
	result.Utterances = kept
}
