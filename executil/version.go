package executil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
)

var versionPattern = regexp.MustCompile(`^(\d+)(\.\d+)*(-\d+)?$`)

// VersionCmp compares two version strings of the form X[.Y[.Z...]][-R],
// returning -1, 0 or 1 as v1 is lower, equal to, or higher than v2
// (bd_utils_version_cmp). Only natural-number components are supported;
// anything else is reported via a *bderrors.Error of Kind
// KindInvalidArgument.
func VersionCmp(v1, v2 string) (int, error) {
	if !versionPattern.MatchString(v1) {
		return 0, bderrors.New(bderrors.KindInvalidArgument, "invalid or unsupported version (1) format: %s", v1)
	}
	if !versionPattern.MatchString(v2) {
		return 0, bderrors.New(bderrors.KindInvalidArgument, "invalid or unsupported version (2) format: %s", v2)
	}

	f1 := splitVersion(v1)
	f2 := splitVersion(v2)

	for i := 0; i < len(f1) || i < len(f2); i++ {
		var a, b uint64
		if i < len(f1) {
			a = f1[i]
		}
		if i < len(f2) {
			b = f2[i]
		}
		if a < b {
			return -1, nil
		}
		if a > b {
			return 1, nil
		}
	}

	return 0, nil
}

func splitVersion(v string) []uint64 {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '-' })
	out := make([]uint64, len(parts))
	for i, p := range parts {
		n, _ := strconv.ParseUint(p, 10, 64)
		out[i] = n
	}
	return out
}
