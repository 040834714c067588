package ocr

import (
	"fmt"
	"regexp"
)

// Status is the outcome of one page recognition.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// TimeoutMarker is left in the page text when recognition exceeds its deadline.
func TimeoutMarker(page int) string {
	return fmt.Sprintf("[第%d页OCR识别超时，内容可能缺失]", page)
}

// FailureMarker is left in the page text when the recognizer cannot be built
// or returns an error.
func FailureMarker(page int) string {
	return fmt.Sprintf("[第%d页OCR识别失败，内容可能缺失]", page)
}

var reFailureMarker = regexp.MustCompile(`\[第\d+页OCR识别(超时|失败)，内容可能缺失\]`)

// IsFailureMarker reports whether text contains a timeout or failure marker.
func IsFailureMarker(text string) bool {
	return reFailureMarker.MatchString(text)
}
