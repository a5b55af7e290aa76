package labels

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

type (
	// Codec is a bidirectional mapping between labels and dense integer codes.
	// Codes follow the byte order of the labels.
	Codec struct {
		classes []string
		codes   map[string]int
	}

	// DecodeError is raised when a predicted code has no label, which means
	// the classifier and codec were not produced by the same training run
	DecodeError struct {
		Code    int
		Classes int
	}
)

func (e *DecodeError) Error() string {
	return fmt.Sprintf("code %d is outside of the label codec range [0, %d)", e.Code, e.Classes)
}

// FitCodec builds a codec over the distinct labels
func FitCodec(labels []string) *Codec {
	distinct := make(map[string]bool)
	for _, label := range labels {
		distinct[label] = true
	}
	classes := make([]string, 0, len(distinct))
	for label := range distinct {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return newCodec(classes)
}

// NewCodec rebuilds a codec from a persisted class list, which must be sorted
// and free of duplicates
func NewCodec(classes []string) (*Codec, error) {
	for i := 1; i < len(classes); i++ {
		if classes[i-1] >= classes[i] {
			return nil, fmt.Errorf("codec classes are not strictly sorted at %q, %q", classes[i-1], classes[i])
		}
	}
	return newCodec(append([]string(nil), classes...)), nil
}

func newCodec(classes []string) *Codec {
	codes := make(map[string]int, len(classes))
	for code, label := range classes {
		codes[label] = code
	}
	return &Codec{classes: classes, codes: codes}
}

// Classes returns the labels in code order
func (c *Codec) Classes() []string {
	return append([]string(nil), c.classes...)
}

// Len returns the number of classes
func (c *Codec) Len() int {
	return len(c.classes)
}

// Encode returns the code of a label
func (c *Codec) Encode(label string) (int, error) {
	code, ok := c.codes[label]
	if !ok {
		return 0, fmt.Errorf("label %q is not known to the codec", label)
	}
	return code, nil
}

// EncodeAll encodes every label
func (c *Codec) EncodeAll(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, label := range labels {
		code, err := c.Encode(label)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// Decode returns the label of a code
func (c *Codec) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.classes) {
		return "", &DecodeError{Code: code, Classes: len(c.classes)}
	}
	return c.classes[code], nil
}

// DecodeAll decodes every code, failing on the first out of range code
func (c *Codec) DecodeAll(codes []int) ([]string, error) {
	decoded := make([]string, len(codes))
	for i, code := range codes {
		label, err := c.Decode(code)
		if err != nil {
			return nil, err
		}
		decoded[i] = label
	}
	return decoded, nil
}

// Digest is a BLAKE3 hash of the class list, used to tie a classifier to the
// codec it was trained with
func (c *Codec) Digest() string {
	sum := blake3.Sum256([]byte(strings.Join(c.classes, "\x00")))
	return hex.EncodeToString(sum[:])
}
