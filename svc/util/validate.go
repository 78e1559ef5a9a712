package util

import (
	"regexp"

	"github.com/hkauso/pastemd/pkg/domain"
)

const (
	minURLLength     = 3
	maxURLLength     = 250
	minContentLength = 1
	maxContentLength = 200_000
)

// Slugs allow word characters, "_", "-", ".", "!" and pictographic
// symbols. The multi-line anchors are intentional: each line of a
// multi-line input is matched independently.
var slugPattern = regexp.MustCompile(`(?m)^[\w\-.!\p{So}]+$`)

func ValidateURL(s string) error {
	if len(s) < minURLLength || len(s) > maxURLLength {
		return domain.ErrValue
	}
	if !slugPattern.MatchString(s) {
		return domain.ErrValue
	}
	return nil
}

func ValidateContent(c string) error {
	if len(c) < minContentLength || len(c) > maxContentLength {
		return domain.ErrValue
	}
	return nil
}
