// Package asr decodes diarized speech-to-text exports into raw transcript
// segments.
//
// Two export shapes are supported: segment-level JSON (one entry per
// diarized utterance, WhisperX style) and word-level JSON (one entry per
// recognized word, ElevenLabs style). Word exports are folded into
// utterances on speaker change, sentence-final punctuation, or a silence
// gap. Decoders are the only place engine-specific field names and time
// units appear; everything downstream works on RawSegments in milliseconds.
package asr
