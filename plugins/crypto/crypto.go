// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package crypto wraps a representative slice of LUKS volume
// management: format, open, close, and status/UUID/is-LUKS query,
// built on cryptsetup(8) CLI conventions (one of passphrase/keyFile
// required for format/open, cipher/keySize optional for format).
// Passphrase-bearing invocations use executil.ExecWithInput so the
// secret travels over stdin rather than argv, matching cryptsetup's own
// expectation and keeping it out of process listings.
package crypto

import (
	"context"
	"strconv"
	"strings"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/executil"
	"github.com/dswarbrick/blockdev/plugin"
)

func init() {
	plugin.Register(plugin.CRYPTO, func() plugin.Backend { return &Backend{} })
}

// Backend is the crypto plugin's compiled-in registry entry.
type Backend struct{}

// Init satisfies plugin.Backend.
func (b *Backend) Init() error { return nil }

// Close satisfies plugin.Backend.
func (b *Backend) Close() error { return nil }

// IsTechAvail satisfies plugin.Backend.
func (b *Backend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

// LUKSFormat formats device as LUKS, with an optional explicit cipher
// spec and key size (0 leaves cryptsetup's defaults), keyed by either
// passphrase or keyFile (bd_crypto_luks_format). At least one of
// passphrase/keyFile must be given; keyFile is used when both are.
func LUKSFormat(ctx context.Context, device, cipher string, keySize int, passphrase, keyFile string) error {
	if passphrase == "" && keyFile == "" {
		return bderrors.New(bderrors.KindInvalidArgument, "one of passphrase or key file is required")
	}

	args := []string{"cryptsetup", "luksFormat", "-q"}
	if cipher != "" {
		args = append(args, "--cipher", cipher)
	}
	if keySize > 0 {
		args = append(args, "--key-size", strconv.Itoa(keySize))
	}
	if keyFile != "" {
		args = append(args, "--key-file", keyFile, device)
		return executil.ExecAndReportError(ctx, args)
	}

	args = append(args, device)
	_, err := executil.ExecWithInput(ctx, args, passphrase+"\n")
	return err
}

// LUKSOpen opens device as a mapped LUKS volume named name, keyed by
// either passphrase or keyFile (bd_crypto_luks_open).
func LUKSOpen(ctx context.Context, device, name, passphrase, keyFile string) error {
	if passphrase == "" && keyFile == "" {
		return bderrors.New(bderrors.KindInvalidArgument, "one of passphrase or key file is required")
	}

	if keyFile != "" {
		return executil.ExecAndReportError(ctx, []string{"cryptsetup", "luksOpen", "--key-file", keyFile, device, name})
	}

	_, err := executil.ExecWithInput(ctx, []string{"cryptsetup", "luksOpen", device, name}, passphrase+"\n")
	return err
}

// LUKSClose tears down a mapped LUKS volume (bd_crypto_luks_close).
func LUKSClose(ctx context.Context, luksDevice string) error {
	return executil.ExecAndReportError(ctx, []string{"cryptsetup", "luksClose", luksDevice})
}

// LUKSStatus reports one of "invalid", "inactive", "active" or "busy"
// for luksDevice (bd_crypto_luks_status).
func LUKSStatus(ctx context.Context, luksDevice string) (string, error) {
	out, err := executil.ExecAndCaptureOutput(ctx, []string{"cryptsetup", "status", luksDevice})
	if err != nil {
		return "", err
	}

	for _, want := range []string{"is active", "is busy", "is inactive"} {
		if strings.Contains(out, want) {
			switch want {
			case "is active":
				return "active", nil
			case "is busy":
				return "busy", nil
			default:
				return "inactive", nil
			}
		}
	}

	return "invalid", nil
}

// LUKSUUID returns the LUKS UUID of device (bd_crypto_luks_uuid).
func LUKSUUID(ctx context.Context, device string) (string, error) {
	return executil.ExecAndCaptureOutput(ctx, []string{"cryptsetup", "luksUUID", device})
}

// IsLUKS reports whether device is a LUKS device
// (bd_crypto_device_is_luks).
func IsLUKS(ctx context.Context, device string) bool {
	return executil.ExecAndReportError(ctx, []string{"cryptsetup", "isLuks", device}) == nil
}

