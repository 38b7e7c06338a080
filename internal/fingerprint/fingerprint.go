// Package fingerprint derives the content fingerprints that make up analysis cache keys.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// NotSpecified replaces an empty or blank job field before hashing.
const NotSpecified = "not_specified"

// Generator computes resume and job fingerprints.
//
// With NormalizeResume unset the resume fingerprint is taken over the exact
// text bytes. With it set the text is lower-cased, trimmed and its whitespace
// runs collapsed first, so cosmetic edits map to the same key.
type Generator struct {
	NormalizeResume bool
}

// Resume returns the 32-char lowercase hex MD5 of the resume text.
func (g Generator) Resume(text string) string {
	if g.NormalizeResume {
		text = NormalizeText(text)
	}
	return md5Hex(text)
}

// Job returns the MD5 hex of "<title>_<description>" after trimming both
// fields and replacing blanks with NotSpecified. Inputs that differ only in
// surrounding whitespace, or a literal "not_specified" versus a blank field,
// share a fingerprint on purpose.
func (g Generator) Job(title, description string) string {
	title, description = JobFields(title, description)
	return md5Hex(title + "_" + description)
}

// Resume fingerprints text with the default (exact bytes) generator.
func Resume(text string) string {
	return Generator{}.Resume(text)
}

// Job fingerprints a job title and description with the default generator.
func Job(title, description string) string {
	return Generator{}.Job(title, description)
}

// JobFields returns the normalized job title and description.
func JobFields(title, description string) (string, string) {
	return orNotSpecified(title), orNotSpecified(description)
}

// NormalizeText lower-cases s, trims it and collapses whitespace runs to one space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func orNotSpecified(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotSpecified
	}
	return s
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
