package cleanup

import (
	"strings"

	"github.com/siongui/gojianfan"
	"golang.org/x/text/width"
)

// VariantTraditional and VariantSimplified are the supported script variants.
const (
	VariantTraditional = "traditional"
	VariantSimplified  = "simplified"
)

// maxPasses bounds the fixed-point iteration. Every pass shrinks the
// whitespace count or moves characters toward their canonical forms, so
// convergence is quick; the bound only guards against surprises.
const maxPasses = 8

// Options configures an Enforcer.
type Options struct {
	// ScriptVariant selects the output script, VariantTraditional or
	// VariantSimplified. Empty defaults to VariantTraditional.
	ScriptVariant string
}

// Enforcer applies the mandatory text cleanup contract: no whitespace inside
// CJK runs, one script variant, canonical punctuation, no redundant
// whitespace or repeated punctuation. It runs unconditionally on every
// segment, whether the text came from the LLM or straight from the ASR
// engine, and applying it twice never changes the result further.
type Enforcer struct {
	variant string
}

// New constructs an Enforcer for the given options.
func New(opts Options) *Enforcer {
	variant := strings.ToLower(strings.TrimSpace(opts.ScriptVariant))
	if variant != VariantSimplified {
		variant = VariantTraditional
	}
	return &Enforcer{variant: variant}
}

// Variant returns the configured output script variant.
func (e *Enforcer) Variant() string {
	return e.variant
}

// Apply normalizes text to the cleanup contract. The four steps run in order
// and iterate to a fixed point, because punctuation conversion can expose new
// CJK-adjacent whitespace that the spacing step must then remove.
func (e *Enforcer) Apply(text string) string {
	prev := text
	for i := 0; i < maxPasses; i++ {
		next := e.pass(prev)
		if next == prev {
			return next
		}
		prev = next
	}
	return prev
}

// ApplyAll normalizes a batch of segment texts in place order, returning a
// new slice.
func (e *Enforcer) ApplyAll(texts []string) []string {
	if len(texts) == 0 {
		return nil
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = e.Apply(t)
	}
	return out
}

func (e *Enforcer) pass(text string) string {
	text = stripCJKSpacing(text)
	text = e.convertVariant(text)
	text = canonicalizePunctuation(text)
	text = collapseRedundancy(text)
	return text
}

// stripCJKSpacing removes whitespace runs whose immediate neighbors on both
// sides are CJK characters. Spacing between CJK and Latin (or digits) is
// preserved.
func stripCJKSpacing(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(runes) {
		if isInlineSpace(runes[i]) {
			j := i
			for j < len(runes) && isInlineSpace(runes[j]) {
				j++
			}
			left := i - 1
			if left >= 0 && j < len(runes) && isCJK(runes[left]) && isCJK(runes[j]) {
				i = j
				continue
			}
			b.WriteString(string(runes[i:j]))
			i = j
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func (e *Enforcer) convertVariant(text string) string {
	if e.variant == VariantSimplified {
		return gojianfan.T2S(text)
	}
	return gojianfan.S2T(text)
}

// cjkPunctMap maps ASCII sentence punctuation to the fullwidth form used in
// CJK text. A rune converts only when its nearest non-space neighbor on
// either side is CJK, so decimal points and Latin clauses survive.
var cjkPunctMap = map[rune]rune{
	',': '，',
	'.': '。',
	'?': '？',
	'!': '！',
	':': '：',
	';': '；',
	'(': '（',
	')': '）',
}

// fullwidthPunctMap folds fullwidth compatibility punctuation onto the
// canonical CJK marks.
var fullwidthPunctMap = map[rune]rune{
	'．': '。',
	'﹐': '，',
	'﹒': '。',
	'﹔': '；',
	'﹕': '：',
}

func canonicalizePunctuation(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		if canonical, ok := fullwidthPunctMap[r]; ok {
			out = append(out, canonical)
			continue
		}
		if canonical, ok := cjkPunctMap[r]; ok && hasCJKNeighbor(runes, i) {
			out = append(out, canonical)
			continue
		}
		if isFullwidthAlnum(r) {
			if narrow := narrowRune(r); narrow != 0 {
				out = append(out, narrow)
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func hasCJKNeighbor(runes []rune, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		if isInlineSpace(runes[i]) {
			continue
		}
		if isCJK(runes[i]) {
			return true
		}
		break
	}
	for i := idx + 1; i < len(runes); i++ {
		if isInlineSpace(runes[i]) {
			continue
		}
		if isCJK(runes[i]) {
			return true
		}
		break
	}
	return false
}

func narrowRune(r rune) rune {
	p := width.LookupRune(r)
	if p.Kind() != width.EastAsianFullwidth {
		return 0
	}
	return p.Narrow()
}

// collapsiblePunct lists marks that never meaningfully repeat. The ellipsis
// is absent: doubling it is conventional.
var collapsiblePunct = map[rune]struct{}{
	'。': {}, '，': {}, '？': {}, '！': {}, '：': {}, '；': {}, '、': {},
	'.': {}, ',': {}, '?': {}, '!': {}, ':': {}, ';': {},
}

func collapseRedundancy(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		r := runes[i]
		if isInlineSpace(r) {
			j := i
			for j < len(runes) && isInlineSpace(runes[j]) {
				j++
			}
			if len(out) > 0 && j < len(runes) {
				out = append(out, ' ')
			}
			i = j
			continue
		}
		if _, ok := collapsiblePunct[r]; ok {
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			out = append(out, r)
			i = j
			continue
		}
		out = append(out, r)
		i++
	}
	return string(out)
}
