// Package labels collapses raw attack labels into the canonical label set and
// encodes canonical labels as dense integer codes
package labels

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical labels
const (
	Benign     = "BENIGN"
	DDoS       = "DDoS"
	PortScan   = "PortScan"
	Bot        = "Bot"
	RareAttack = "Rare Attack"
	BruteForce = "Brute Force"
	DoS        = "DoS"
	WebAttack  = "Web Attack"
)

// Canonical is the closed set of categories the classifier predicts
var Canonical = []string{Benign, DDoS, PortScan, Bot, RareAttack, BruteForce, DoS, WebAttack}

// replacementChar marks bytes the dataset exporter could not encode. It shows
// up where the source data had a dash.
const replacementChar = "\ufffd"

// rawToCanonical is the fixed mapping from dataset labels to canonical labels
var rawToCanonical = map[string]string{
	"BENIGN":                     Benign,
	"DDoS":                       DDoS,
	"PortScan":                   PortScan,
	"Bot":                        Bot,
	"Infiltration":               RareAttack,
	"Heartbleed":                 RareAttack,
	"FTP-Patator":                BruteForce,
	"SSH-Patator":                BruteForce,
	"DoS Hulk":                   DoS,
	"DoS GoldenEye":              DoS,
	"DoS slowloris":              DoS,
	"DoS Slowhttptest":           DoS,
	"Web Attack - Brute Force":   WebAttack,
	"Web Attack - XSS":           WebAttack,
	"Web Attack - Sql Injection": WebAttack,
	RareAttack:                   RareAttack,
	BruteForce:                   BruteForce,
	DoS:                          DoS,
	WebAttack:                    WebAttack,
}

type (
	// Normalizer maps raw labels to canonical ones
	Normalizer struct {
		allowUnmapped bool
	}

	// UnmappedLabelError lists raw labels that have no canonical category,
	// with the number of rows carrying each one
	UnmappedLabelError struct {
		Counts map[string]int
	}
)

func (e *UnmappedLabelError) Error() string {
	names := make([]string, 0, len(e.Counts))
	for name := range e.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%q (%d rows)", name, e.Counts[name])
	}
	return "labels without a canonical category: " + strings.Join(parts, ", ")
}

// NewNormalizer creates a Normalizer. With allowUnmapped set, labels missing
// from the mapping pass through unchanged instead of failing validation.
func NewNormalizer(allowUnmapped bool) *Normalizer {
	return &Normalizer{allowUnmapped: allowUnmapped}
}

// Clean repairs the encoding artifact in a raw label and trims it
func Clean(raw string) string {
	return strings.TrimSpace(strings.Replace(raw, replacementChar, "-", -1))
}

// Lookup returns the canonical label for a raw label and whether it was mapped.
// Unmapped labels are returned cleaned but otherwise unchanged.
func Lookup(raw string) (string, bool) {
	cleaned := Clean(raw)
	canonical, ok := rawToCanonical[cleaned]
	if !ok {
		return cleaned, false
	}
	return canonical, true
}

// IsCanonical reports whether label is a member of the canonical set
func IsCanonical(label string) bool {
	for _, canonical := range Canonical {
		if canonical == label {
			return true
		}
	}
	return false
}

// Normalize maps every raw label. Unless unmapped labels are allowed, any raw
// label without a canonical category fails the whole batch with an
// *UnmappedLabelError.
func (n *Normalizer) Normalize(raw []string) ([]string, error) {
	normalized := make([]string, len(raw))
	unmapped := make(map[string]int)
	for i, label := range raw {
		canonical, ok := Lookup(label)
		if !ok {
			unmapped[canonical]++
		}
		normalized[i] = canonical
	}
	if len(unmapped) > 0 && !n.allowUnmapped {
		return nil, &UnmappedLabelError{Counts: unmapped}
	}
	return normalized, nil
}
