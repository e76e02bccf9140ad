// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Bit/byte helpers: the ATA-string byte swap needed by identify.go. Size
// pretty-printing for the whole module lives in the `sizes` package.

package smart

// swapBytes swaps the order of every second byte in a byte slice
// (modifies the slice in place), undoing the big-endian word packing ATA
// uses for string fields in an otherwise little-endian IDENTIFY response.
func swapBytes(s []byte) []byte {
	for i := 0; i+1 < len(s); i += 2 {
		s[i], s[i+1] = s[i+1], s[i]
	}
	return s
}
