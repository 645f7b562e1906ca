package roles

import (
	"strings"
	"unicode"

	"burnish/internal/transcript"
)

// Stats tallies the conversational evidence the role heuristic weighs for
// one speaker.
type Stats struct {
	Words         int
	OpenQuestions int
}

// Candidate pairs a speaker key with its observed stats.
type Candidate struct {
	Key   string
	Stats Stats
}

// InferCoach picks the coach between exactly two unlabeled speakers: the one
// asking strictly more open questions while producing strictly fewer words.
// Anything short of that returns "", leaving both speakers unknown rather
// than forcing a guess.
func InferCoach(a, b Candidate) string {
	if coachLike(a.Stats, b.Stats) {
		return a.Key
	}
	if coachLike(b.Stats, a.Stats) {
		return b.Key
	}
	return ""
}

func coachLike(s, other Stats) bool {
	return s.OpenQuestions > other.OpenQuestions && s.Words < other.Words
}

// Observe tallies per-speaker stats over merged segments, keyed by
// normalized speaker key. Tags that normalize to the same key fold into one
// entry.
func Observe(segments []transcript.MergedSegment) map[string]Stats {
	out := make(map[string]Stats)
	for _, seg := range segments {
		key := SpeakerKey(seg.SpeakerTag)
		if key == "" {
			continue
		}
		s := out[key]
		s.Words += CountWords(seg.Text)
		if IsOpenQuestion(seg.Text) {
			s.OpenQuestions++
		}
		out[key] = s
	}
	return out
}

// openQuestionCues are substrings that mark an interrogative as open-ended
// in CJK text, where word boundaries are not spelled out.
var openQuestionCues = []string{
	"什麼", "什么", "為什麼", "为什么", "怎麼", "怎么", "如何",
	"哪裡", "哪里", "哪些", "多少", "誰", "谁", "呢",
}

// openQuestionWords are whole-word Latin interrogatives.
var openQuestionWords = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "where": {}, "when": {}, "who": {}, "which": {},
}

// IsOpenQuestion reports whether text reads as an open-ended question.
// Yes/no confirmations do not count; neither does a cue word without a
// question mark, since coaching speech is full of embedded clauses.
func IsOpenQuestion(text string) bool {
	if !strings.ContainsAny(text, "?？") {
		return false
	}
	for _, cue := range openQuestionCues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	lowered := strings.ToLower(text)
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := openQuestionWords[w]; ok {
			return true
		}
	}
	return false
}

// CountWords counts CJK characters individually and Latin words as single
// units, so mixed-script utterances weigh comparably.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case isIdeograph(r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
			}
			inWord = true
		default:
			inWord = false
		}
	}
	return count
}

func isIdeograph(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
