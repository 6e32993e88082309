// Package rewrite rebases the parenthesized path references found in a
// labeled metadata field of Markdown text.
//
// A field is the first occurrence of a literal label followed by optional
// whitespace; its value runs to the next line break. Everything outside
// that value passes through untouched.
package rewrite

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// refRe matches one parenthesized reference. The scan is not nesting-aware:
// the first ')' after a '(' ends the reference, and empty parentheses are
// not references. Nested parentheses therefore produce wrong spans; that is
// long-standing behavior downstream content may rely on, so it stays.
var refRe = regexp.MustCompile(`\([^)]+\)`)

// Rules configure how references are rebased.
type Rules struct {
	// Label marks the field whose value holds the references. Matched
	// literally, first occurrence only.
	Label string
	// Base is joined in front of each reference before rebasing.
	Base string
	// Anchor is the directory the joined path is made relative to.
	Anchor string
}

// Ref records a single rebased reference, without parentheses.
type Ref struct {
	From string
	To   string
}

// Result is the outcome of applying a Rewriter to one document.
type Result struct {
	// Text is the document text after rewriting. Equal to the input when
	// no labeled field was found.
	Text string
	// Changed reports whether Text differs from the input.
	Changed bool
	// Refs lists the references found in the field value, in order.
	Refs []Ref
}

// Rewriter applies one set of Rules to document text. Safe for concurrent
// use once constructed.
type Rewriter struct {
	rules   Rules
	labelRe *regexp.Regexp
}

// New compiles a Rewriter for the given rules.
func New(rules Rules) *Rewriter {
	return &Rewriter{
		rules:   rules,
		labelRe: regexp.MustCompile(regexp.QuoteMeta(rules.Label) + `\s*([\s\S]*?)\n`),
	}
}

// Apply rewrites the first labeled field in text. The rewritten value is
// spliced back at the byte offsets where the original value sat, so other
// regions of the document are never touched even when they contain the
// same text. A document without the label, or with an empty value, comes
// back as-is with no refs.
func (r *Rewriter) Apply(text string) Result {
	value, start, ok := r.findValue(text)
	if !ok {
		return Result{Text: text}
	}

	var refs []Ref
	rewritten := refRe.ReplaceAllStringFunc(value, func(m string) string {
		from := m[1 : len(m)-1]
		to := r.rebase(from)
		refs = append(refs, Ref{From: from, To: to})
		return "(" + to + ")"
	})

	out := text[:start] + rewritten + text[start+len(value):]
	return Result{
		Text:    out,
		Changed: out != text,
		Refs:    refs,
	}
}

// findValue locates the first labeled field and returns its value, stripped
// of surrounding whitespace, with the byte offset where the stripped value
// starts. ok is false when the label is absent, the value line is empty, or
// no line break follows the value.
func (r *Rewriter) findValue(text string) (value string, start int, ok bool) {
	m := r.labelRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", 0, false
	}
	raw := text[m[2]:m[3]]
	lead := strings.IndexFunc(raw, func(c rune) bool { return !unicode.IsSpace(c) })
	if lead < 0 {
		return "", 0, false
	}
	value = strings.TrimRightFunc(raw[lead:], unicode.IsSpace)
	return value, m[2] + lead, true
}

// rebase joins ref onto the base path and recomputes it relative to the
// anchor. A ref that cannot be made relative to the anchor is returned
// unchanged rather than reported: malformed references are an accepted
// limitation, not an error.
func (r *Rewriter) rebase(ref string) string {
	joined := filepath.Join(r.rules.Base, ref)
	rel, err := filepath.Rel(r.rules.Anchor, joined)
	if err != nil {
		return ref
	}
	return rel
}
