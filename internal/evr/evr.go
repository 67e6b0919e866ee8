// Package evr implements rpm-style ordering of [epoch:]version[-release]
// strings.
package evr

import (
	"strings"

	"github.com/ralt/rpmorder/internal/models"
)

// EVR is a split epoch/version/release triple
type EVR struct {
	Epoch   string
	Version string
	Release string
}

// Split splits s into epoch, version and release. The epoch is whatever
// precedes the first ':' and defaults to "0"; the release is whatever
// follows the last '-'. No further validation is done.
func Split(s string) (epoch, version, release string) {
	epoch = "0"
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if i > 0 {
			epoch = s[:i]
		}
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		release = s[i+1:]
		s = s[:i]
	}
	return epoch, s, release
}

// Parse is Split returning an EVR
func Parse(s string) EVR {
	e, v, r := Split(s)
	return EVR{Epoch: e, Version: v, Release: r}
}

func (e EVR) String() string {
	s := e.Version
	if e.Epoch != "" && e.Epoch != "0" {
		s = e.Epoch + ":" + s
	}
	if e.Release != "" {
		s += "-" + e.Release
	}
	return s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isSeparator(c byte) bool { return !isDigit(c) && !isAlpha(c) }

func leading(s string, pred func(byte) bool) (run, rest string) {
	i := 0
	for i < len(s) && pred(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// SegmentCompare compares two version (or release) strings segment by
// segment and returns -1, 0 or 1.
func SegmentCompare(a, b string) int {
	if a == b {
		return 0
	}
	for {
		_, a = leading(a, isSeparator)
		_, b = leading(b, isSeparator)
		if a == "" || b == "" {
			break
		}

		var segA, segB string
		segA, restA := leading(a, isDigit)
		segB, restB := leading(b, isDigit)
		numeric := segA != "" || segB != ""

		if numeric {
			// a numeric segment is always newer than an alpha one
			if segA == "" {
				return -1
			}
			if segB == "" {
				return 1
			}
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		} else {
			segA, restA = leading(a, isAlpha)
			segB, restB = leading(b, isAlpha)
		}

		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
		a, b = restA, restB
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// LabelCompare compares two EVR triples. When b carries no release the
// release is ignored, so "1.2" matches any release of 1.2.
func LabelCompare(a, b EVR) int {
	if c := SegmentCompare(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := SegmentCompare(a.Version, b.Version); c != 0 {
		return c
	}
	if b.Release == "" {
		return 0
	}
	return SegmentCompare(a.Release, b.Release)
}

// Compare parses and compares two EVR strings
func Compare(a, b string) int {
	return LabelCompare(Parse(a), Parse(b))
}

// Satisfies reports whether evr1 relates to evr2 in one of the directions
// selected by flags.
func Satisfies(evr1 string, flags models.DepFlags, evr2 string) bool {
	sign := Compare(evr1, evr2)
	return (sign < 0 && flags&models.SenseLess != 0) ||
		(sign == 0 && flags&models.SenseEqual != 0) ||
		(sign > 0 && flags&models.SenseGreater != 0)
}

// Overlaps reports whether the version ranges described by two dependency
// entries intersect. An entry without a version or sense matches anything.
// The release is only compared when both sides carry one.
func Overlaps(aFlags models.DepFlags, aEVR string, bFlags models.DepFlags, bEVR string) bool {
	aSense, bSense := aFlags.Sense(), bFlags.Sense()
	if aSense == 0 || bSense == 0 || aEVR == "" || bEVR == "" {
		return true
	}

	a, b := Parse(aEVR), Parse(bEVR)
	if a.Release == "" {
		b.Release = ""
	}
	sign := LabelCompare(a, b)

	switch {
	case sign < 0:
		return aSense&models.SenseGreater != 0 || bSense&models.SenseLess != 0
	case sign > 0:
		return aSense&models.SenseLess != 0 || bSense&models.SenseGreater != 0
	default:
		return (aSense&models.SenseEqual != 0 && bSense&models.SenseEqual != 0) ||
			(aSense&models.SenseLess != 0 && bSense&models.SenseLess != 0) ||
			(aSense&models.SenseGreater != 0 && bSense&models.SenseGreater != 0)
	}
}
