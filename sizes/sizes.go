// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package sizes implements binary/decimal size parsing and pretty-printing:
// turning strings like "512 MiB" or "10 KB" into a byte count, and back
// into a human-readable string.
package sizes

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
)

var prefixes = [...]string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei"}

// specPattern mirrors "^\s*\d+(\.\d*)?\s*([kmgtpeKMGTPE]i?)?[bB]?\s*$",
// split into a numeric capture and an optional prefix capture (no prefix
// means plain bytes, e.g. "1 B"); zeroPattern is the zero shortcut form.
var specPattern = regexp.MustCompile(`^\s*(\d+\.?\d*)\s*([kmgtpeKMGTPE]i?)?[bB]?\s*$`)
var zeroPattern = regexp.MustCompile(`^\s*0\.?0*\s*([kmgtpeKMGTPE]i?)?[bB]?\s*$`)

func prefixPower(prefix string) (power int, ok bool) {
	if prefix == "" {
		return 0, true
	}
	letter := strings.ToUpper(prefix[:1])
	for i, p := range prefixes {
		if p == "" {
			continue
		}
		if strings.ToUpper(p[:1]) == letter {
			return i, true
		}
	}
	return 0, false
}

// FromSpec parses a human-readable size specification, e.g. "512 MiB" or
// "10 KB", into a number of bytes, truncating the float multiplication
// toward zero. An unrecognized prefix or unparseable spec returns a
// *bderrors.Error of Kind KindInvalidArgument.
func FromSpec(spec string) (int64, error) {
	if zeroPattern.MatchString(spec) {
		return 0, nil
	}

	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return 0, bderrors.New(bderrors.KindInvalidArgument, "failed to parse spec: %s", spec)
	}

	numStr, prefix := m[1], m[2]
	power, ok := prefixPower(prefix)
	if !ok {
		return 0, bderrors.New(bderrors.KindInvalidArgument, "failed to recognize size prefix: %s", prefix)
	}

	binary := strings.Contains(prefix, "i") || strings.Contains(prefix, "I")
	base := 1000.0
	if binary {
		base = 1024.0
	}

	if !strings.Contains(numStr, ".") {
		n, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			return 0, bderrors.Wrap(bderrors.KindInvalidArgument, err, "failed to parse spec: %s", spec)
		}
		return int64(float64(n) * math.Pow(base, float64(power))), nil
	}

	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, bderrors.Wrap(bderrors.KindInvalidArgument, err, "failed to parse spec: %s", spec)
	}
	return int64(f * math.Pow(base, float64(power))), nil
}

// HumanReadable pretty-prints size in bytes, dividing by 1024 until the
// value drops below that threshold or the largest known prefix (Ei) is
// reached. Prints integer form when exact, else two decimals.
func HumanReadable(size uint64) string {
	value := float64(size)
	i := 0

	for i < len(prefixes)-1 && value >= 1024 {
		value /= 1024.0
		i++
	}

	if value == math.Trunc(value) {
		return fmt.Sprintf("%d %sB", uint64(value), prefixes[i])
	}
	return fmt.Sprintf("%.2f %sB", value, prefixes[i])
}
