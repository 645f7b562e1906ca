package asr

import (
	"encoding/json"
	"strings"

	"burnish/internal/services"
	"burnish/internal/transcript"
)

// Export is a decoded ASR export: the raw segments plus whatever session
// metadata the file carried.
type Export struct {
	Segments []transcript.RawSegment
	Language string
}

// Options tunes export decoding.
type Options struct {
	// WordGapMS is the silence between consecutive words of one speaker that
	// starts a new utterance when folding a word-level export.
	WordGapMS int64
}

const defaultWordGapMS = 800

// segmentExport is the segment-level JSON shape (WhisperX and pyannote
// style exports).
type segmentExport struct {
	Language string `json:"language"`
	Segments []struct {
		Start      json.Number `json:"start"`
		End        json.Number `json:"end"`
		Speaker    string      `json:"speaker"`
		Text       string      `json:"text"`
		Confidence float64     `json:"confidence"`
	} `json:"segments"`
}

// wordExport is the word-level JSON shape (ElevenLabs style exports).
type wordExport struct {
	Language string `json:"language"`
	Words    []struct {
		Text      string      `json:"text"`
		Start     json.Number `json:"start"`
		End       json.Number `json:"end"`
		SpeakerID string      `json:"speaker_id"`
	} `json:"words"`
}

// Decode parses an ASR export in either supported shape. Segments come back
// ordered with sequence numbers assigned from 1 and times in milliseconds.
func Decode(data []byte, opts Options) (Export, error) {
	if len(data) == 0 {
		return Export{}, services.Wrap(services.ErrValidation, "asr", "decode", "empty export", nil)
	}

	var seg segmentExport
	if err := json.Unmarshal(data, &seg); err == nil && len(seg.Segments) > 0 {
		return decodeSegments(seg)
	}

	var words wordExport
	if err := json.Unmarshal(data, &words); err == nil && len(words.Words) > 0 {
		return decodeWords(words, opts)
	}

	return Export{}, services.Wrap(services.ErrValidation, "asr", "decode", "unrecognized export format", nil)
}

func decodeSegments(export segmentExport) (Export, error) {
	out := Export{Language: strings.TrimSpace(export.Language)}
	unit := detectUnit(func(yield func(json.Number)) {
		for _, s := range export.Segments {
			yield(s.Start)
			yield(s.End)
		}
	})
	for _, s := range export.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out.Segments = append(out.Segments, transcript.RawSegment{
			Seq:        len(out.Segments) + 1,
			StartMS:    toMillis(s.Start, unit),
			EndMS:      toMillis(s.End, unit),
			SpeakerTag: strings.TrimSpace(s.Speaker),
			Text:       text,
			Confidence: s.Confidence,
		})
	}
	if len(out.Segments) == 0 {
		return Export{}, services.Wrap(services.ErrValidation, "asr", "decode", "export carries no usable segments", nil)
	}
	return out, nil
}

// sentenceFinal marks a word that closes an utterance when folding word
// exports.
var sentenceFinal = map[string]bool{
	"。": true, "？": true, "！": true, "…": true,
	"?": true, "!": true, ".": true,
}

// decodeWords folds word-level entries into utterance segments. A new
// utterance starts on speaker change or a silence gap; sentence-final
// punctuation closes the current one. Words of one utterance are joined
// without separators when they are single CJK characters and with a space
// otherwise, leaving final spacing decisions to the cleanup pass.
func decodeWords(export wordExport, opts Options) (Export, error) {
	gapMS := opts.WordGapMS
	if gapMS <= 0 {
		gapMS = defaultWordGapMS
	}
	unit := detectUnit(func(yield func(json.Number)) {
		for _, w := range export.Words {
			yield(w.Start)
			yield(w.End)
		}
	})

	out := Export{Language: strings.TrimSpace(export.Language)}
	var buf strings.Builder
	var startMS, lastEndMS int64
	speaker := ""

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		out.Segments = append(out.Segments, transcript.RawSegment{
			Seq:        len(out.Segments) + 1,
			StartMS:    startMS,
			EndMS:      lastEndMS,
			SpeakerTag: speaker,
			Text:       text,
		})
	}

	for _, w := range export.Words {
		text := strings.TrimSpace(w.Text)
		wordStart := toMillis(w.Start, unit)
		wordEnd := toMillis(w.End, unit)
		tag := strings.TrimSpace(w.SpeakerID)

		if buf.Len() > 0 && (tag != speaker || wordStart-lastEndMS > gapMS) {
			flush()
		}
		if buf.Len() == 0 {
			startMS = wordStart
			speaker = tag
		}
		if text != "" {
			if buf.Len() > 0 && needsSpace(buf.String(), text) {
				buf.WriteByte(' ')
			}
			buf.WriteString(text)
		}
		lastEndMS = wordEnd

		if sentenceFinal[text] {
			flush()
		}
	}
	flush()

	if len(out.Segments) == 0 {
		return Export{}, services.Wrap(services.ErrValidation, "asr", "decode", "export carries no usable words", nil)
	}
	return out, nil
}

// needsSpace reports whether a separator belongs between the current buffer
// and the next word: Latin words need one, CJK characters join directly.
func needsSpace(current, next string) bool {
	last := []rune(current)
	first := []rune(next)
	return !isCJKRune(last[len(last)-1]) || !isCJKRune(first[0])
}

func isCJKRune(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF, // CJK Unified Ideographs
		r >= 0x3400 && r <= 0x4DBF, // Extension A
		r >= 0x3040 && r <= 0x30FF, // kana
		r >= 0xAC00 && r <= 0xD7AF, // Hangul syllables
		r >= 0x3000 && r <= 0x303F, // CJK punctuation
		r >= 0xFF00 && r <= 0xFFEF: // fullwidth forms
		return true
	}
	return false
}

// timeUnit is the detected unit of an export's timestamps.
type timeUnit int

const (
	unitSeconds timeUnit = iota
	unitMillis
)

// detectUnit guesses whether timestamps are seconds or milliseconds.
// Fractional values or small magnitudes read as seconds; whole values past
// the plausible length of a session in seconds read as milliseconds.
func detectUnit(each func(yield func(json.Number))) timeUnit {
	unit := unitSeconds
	each(func(n json.Number) {
		s := n.String()
		if strings.Contains(s, ".") {
			return
		}
		if v, err := n.Int64(); err == nil && v > 100000 {
			unit = unitMillis
		}
	})
	return unit
}

func toMillis(n json.Number, unit timeUnit) int64 {
	if unit == unitMillis {
		v, _ := n.Int64()
		return v
	}
	f, _ := n.Float64()
	return int64(f*1000 + 0.5)
}
