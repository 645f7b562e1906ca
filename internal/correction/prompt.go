package correction

import (
	"fmt"
	"strings"

	"burnish/internal/transcript"
)

// Meta carries the session attributes the correction prompt needs.
type Meta struct {
	Language      string
	ScriptVariant string
}

// systemPrompt captures the instructions sent with every correction request.
// Keep updates centralized here so it is easy to tweak without hunting
// through call sites.
const systemPrompt = `You are a transcript editor for two-party coaching conversations transcribed by speech recognition.

You receive numbered, speaker-tagged utterances. In a single pass you must:

1. Remove erroneous spaces that the recognizer inserted between characters of the same word. CJK text never contains spaces between adjacent CJK characters.
2. Classify each speaker as either "coach" (the party guiding the conversation, asking open questions) or "client" (the party exploring their own situation). Use conversational cues only.
3. Normalize the text to the requested script variant. Never mix variants.
4. Insert natural sentence punctuation using the conventions of the transcript language (fullwidth marks for CJK text).

Rules:

- Keep the utterances in their original order and keep exactly one output segment per input segment.
- Fix recognition spacing and punctuation only. Do not rephrase, summarize, translate, or drop content.
- Latin words embedded in CJK text keep their spelling and their surrounding spaces.
- If you cannot tell which speaker is the coach, use "unknown" rather than guessing.

Examples of spacing and punctuation repair, including mixed-script text:

Input:  好 ， 你好 ， 我 是 你 的 教練
Output: 好，你好，我是你的教練。

Input:  我 上週 用 Excel 做 了 一個 報表
Output: 我上週用Excel做了一個報表。

Input:  嗯 這個 OK 嗎 還是 要 再 調整
Output: 嗯，這個OK嗎？還是要再調整？

You must respond ONLY with a JSON object in this exact format (no markdown, no prose):
{
  "speakers": {"Speaker_1": "coach", "Speaker_2": "client"},
  "segments": [
    {"speaker": "Speaker_1", "text": "corrected utterance"}
  ]
}`

// SystemPrompt returns the instruction block for the correction request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt renders the merged transcript and session metadata as the
// user half of the correction request: a short header followed by one
// numbered, speaker-tagged line per merged segment.
func BuildUserPrompt(segments []transcript.MergedSegment, meta Meta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\n", orUnspecified(meta.Language))
	fmt.Fprintf(&b, "Script variant: %s\n", orUnspecified(meta.ScriptVariant))
	fmt.Fprintf(&b, "Segments: %d\n\n", len(segments))
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, seg.SpeakerTag, collapseLine(seg.Text))
	}
	return b.String()
}

func orUnspecified(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unspecified"
	}
	return value
}

// collapseLine keeps each segment on one prompt line so the numbering stays
// parseable even when ASR text carries stray newlines.
func collapseLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
