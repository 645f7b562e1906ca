// Package cleanup enforces the mandatory normalization contract on transcript
// text.
//
// Every segment passes through the Enforcer on every processing run, whether
// its text came back from the correction model or fell through unchanged from
// the ASR output. The contract has four parts: no whitespace between CJK
// characters, a single Chinese script variant per session, canonical
// fullwidth punctuation in CJK context, and no redundant whitespace or
// repeated punctuation. Applying the Enforcer to its own output changes
// nothing, so downstream consumers can re-run it freely.
package cleanup
