// Package corpus loads, splits and generates labelled message collections.
package corpus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Class labels.
const (
	Ham  = 0
	Spam = 1
)

// ClassNames are the class names indexed by label.
var ClassNames = []string{"ham", "spam"}

var (
	// ErrMalformedRecord is returned for rows that cannot be parsed.
	ErrMalformedRecord = errors.New("corpus: malformed record")
	// ErrUnknownFormat is returned when no reader matches a file.
	ErrUnknownFormat = errors.New("corpus: unknown format")
	// ErrInvalidSplit is returned for split sizes leaving a partition empty.
	ErrInvalidSplit = errors.New("corpus: invalid split")
)

// Document is one labelled message.
type Document struct {
	Text  string `json:"text"`
	Label int    `json:"label"`
}

// Texts returns the text of every document.
func Texts(docs []Document) []string {
	return lo.Map(docs, func(d Document, _ int) string { return d.Text })
}

// Labels returns the label of every document.
func Labels(docs []Document) []int {
	return lo.Map(docs, func(d Document, _ int) int { return d.Label })
}

// Counts returns the number of ham and spam documents.
func Counts(docs []Document) (ham, spam int) {
	spam = lo.CountBy(docs, func(d Document) bool { return d.Label == Spam })
	return len(docs) - spam, spam
}

// ParseLabel accepts 0, 1, ham and spam in any case.
func ParseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "ham":
		return Ham, nil
	case "1", "spam":
		return Spam, nil
	}
	return 0, fmt.Errorf("unknown label %q", s)
}

// ClassName returns the name of label, or its number if unknown.
func ClassName(label int) string {
	if label >= 0 && label < len(ClassNames) {
		return ClassNames[label]
	}
	return strconv.Itoa(label)
}
