// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package nvmefabrics implements NVMe-over-Fabrics initiator operations:
// connecting to and disconnecting from remote NVMe subsystems, and
// managing the persistent Host NQN/Host ID identity files consulted by
// every connect call.
//
// This package talks directly to the kernel ABI nvme-cli/libnvme use
// underneath: writing a "transport=...,nqn=...,..." key=value string to
// the /dev/nvme-fabrics control device to connect, and writing "1" to a
// controller's sysfs delete_controller attribute to disconnect.
package nvmefabrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/blockdevlog"
	"github.com/dswarbrick/blockdev/extraarg"
)

// These are package-level variables, not constants, so tests can point
// them at a scratch directory instead of the real system paths.
var (
	hostnqnPath = "/etc/nvme/hostnqn"
	hostidPath  = "/etc/nvme/hostid"

	fabricsDevice = "/dev/nvme-fabrics"
	sysfsNVMeRoot = "/sys/class/nvme-fabrics/ctl"
)

// ConnectOptions carries the parameters of a fabrics connect, mirroring
// bd_nvme_connect's primary arguments plus its documented extra options.
type ConnectOptions struct {
	SubsysNQN      string
	Transport      string // "rdma", "fc", "tcp", or "loop"
	TransportAddr  string
	TransportSvcID string
	HostTraddr     string
	HostIface      string
	HostNQN        string // overrides the persisted/generated value when set
	HostID         string // overrides the persisted/derived value when set

	// Extra carries the additional nvme-cli/config.json style options
	// (nr_io_queues, keep_alive_tmo, reconnect_delay, ctrl_loss_tmo,
	// hdr_digest, data_digest, tls, hostsymname, ...), passed through
	// verbatim as key=value pairs in the kernel connect string.
	Extra []extraarg.ExtraArg
}

// resolveHostIdentity mirrors bd_nvme_connect's HostNQN/HostID fallback
// chain: explicit override, then the persisted file, then (for the NQN
// only) a freshly generated value; the HostID, if still unset, is derived
// from a "uuid:" suffix on the resolved HostNQN.
func resolveHostIdentity(hostNQN, hostID string) (string, string, error) {
	nqn := hostNQN
	if nqn == "" {
		nqn, _ = GetHostNQN()
	}
	id := hostID
	if id == "" {
		id, _ = GetHostID()
	}
	if nqn == "" {
		var err error
		nqn, err = GenerateHostNQN()
		if err != nil {
			return "", "", bderrors.Wrap(bderrors.KindInvalidArgument, err, "could not determine HostNQN")
		}
	}
	if id == "" {
		if idx := strings.LastIndex(nqn, "uuid:"); idx >= 0 {
			id = nqn[idx+len("uuid:"):]
		}
	}
	if id == "" {
		return "", "", bderrors.New(bderrors.KindInvalidArgument, "could not determine HostID value from HostNQN %q", nqn)
	}
	return nqn, id, nil
}

// buildConnectString renders the "transport=tcp,nqn=...,..." line the
// kernel's /dev/nvme-fabrics control device expects, in the field order
// nvme-cli itself uses.
func buildConnectString(opts ConnectOptions, hostNQN, hostID string) string {
	var b strings.Builder

	write := func(key, val string) {
		if val == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(val)
	}

	write("transport", opts.Transport)
	write("nqn", opts.SubsysNQN)
	write("traddr", opts.TransportAddr)
	write("trsvcid", opts.TransportSvcID)
	write("host_traddr", opts.HostTraddr)
	write("host_iface", opts.HostIface)
	write("hostnqn", hostNQN)
	write("hostid", hostID)

	for _, e := range opts.Extra {
		write(e.Opt, e.Val)
	}

	return b.String()
}

// Connect creates a transport connection to a remote NVMe subsystem and
// instantiates a fabrics controller for it (bd_nvme_connect).
func Connect(ctx context.Context, opts ConnectOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.SubsysNQN == "" {
		return bderrors.New(bderrors.KindInvalidArgument, "invalid value specified for the subsysnqn argument")
	}
	if opts.Transport == "" {
		return bderrors.New(bderrors.KindInvalidArgument, "invalid value specified for the transport argument")
	}
	if opts.TransportAddr == "" && opts.Transport != "loop" && opts.Transport != "pcie" {
		return bderrors.New(bderrors.KindInvalidArgument, "invalid value specified for the transport address argument")
	}

	hostNQN, hostID, err := resolveHostIdentity(opts.HostNQN, opts.HostID)
	if err != nil {
		return err
	}

	connectStr := buildConnectString(opts, hostNQN, hostID)

	blockdevlog.Log(blockdevlog.CategoryTaskStart, 0, "Connecting to NVMe subsystem "+opts.SubsysNQN)

	f, err := os.OpenFile(fabricsDevice, os.O_RDWR, 0)
	if err != nil {
		return bderrors.Wrap(bderrors.KindConnect, err, "could not open %s", fabricsDevice)
	}
	defer f.Close()

	if _, err := f.WriteString(connectStr); err != nil {
		kind := bderrors.KindConnect
		switch {
		case errors.Is(err, syscall.EALREADY), errors.Is(err, syscall.EEXIST):
			kind = bderrors.KindConnectAlreadyExists
		case errors.Is(err, syscall.EINVAL):
			kind = bderrors.KindConnectInvalid
		case errors.Is(err, syscall.EADDRINUSE):
			kind = bderrors.KindConnectAddrInUse
		case errors.Is(err, syscall.ENODEV):
			kind = bderrors.KindConnectNoDev
		case errors.Is(err, syscall.EOPNOTSUPP):
			kind = bderrors.KindConnectOpNotSupp
		case errors.Is(err, syscall.ECONNREFUSED):
			kind = bderrors.KindConnectRefused
		}
		return bderrors.Wrap(kind, err, "error connecting the controller")
	}

	buf := make([]byte, 256)
	n, _ := f.Read(buf) // the kernel echoes back "instance=N" on success; best-effort only
	blockdevlog.Log(blockdevlog.CategoryTaskEnd, 0, "...done ("+strings.TrimSpace(string(buf[:n]))+")")

	return nil
}

// ctrlSubsysNQN reads and trims the subsysnqn sysfs attribute of a
// controller directory under sysfsNVMeRoot.
func ctrlSubsysNQN(ctrlDir string) string {
	b, err := os.ReadFile(filepath.Join(ctrlDir, "subsysnqn"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func disconnectMatching(subsysnqn, name string) (found bool, err error) {
	entries, rerr := os.ReadDir(sysfsNVMeRoot)
	if rerr != nil {
		return false, bderrors.Wrap(bderrors.KindProcessFailed, rerr, "failed to scan topology")
	}

	for _, e := range entries {
		if subsysnqn != "" && ctrlSubsysNQN(filepath.Join(sysfsNVMeRoot, e.Name())) != subsysnqn {
			continue
		}
		if name != "" && e.Name() != name {
			continue
		}

		deletePath := filepath.Join(sysfsNVMeRoot, e.Name(), "delete_controller")
		if werr := os.WriteFile(deletePath, []byte("1"), 0); werr != nil {
			return found, bderrors.Wrap(bderrors.KindProcessFailed, werr, "error disconnecting the controller")
		}
		found = true
	}

	return found, nil
}

// Disconnect disconnects and removes every fabrics controller whose
// subsystem NQN matches subsysnqn (bd_nvme_disconnect).
func Disconnect(subsysnqn string) error {
	found, err := disconnectMatching(subsysnqn, "")
	if err != nil {
		return err
	}
	if !found {
		return bderrors.New(bderrors.KindNoMatch, "no subsystems matching %q NQN found", subsysnqn)
	}
	return nil
}

// DisconnectByPath disconnects a fabrics controller identified by its
// block device path, e.g. "/dev/nvme0" (bd_nvme_disconnect_by_path).
func DisconnectByPath(path string) error {
	name := strings.TrimPrefix(path, "/dev/")

	found, err := disconnectMatching("", name)
	if err != nil {
		return err
	}
	if !found {
		return bderrors.New(bderrors.KindNoMatch, "no controllers matching the %s device name found", path)
	}
	return nil
}

// FindCtrlsForNamespace looks up the sysfs paths of every controller
// associated with the NVMe subsystem that the namespace at nsSysfsPath
// belongs to, optionally narrowed to controllers whose subsystem NQN is
// subsysnqn (bd_nvme_find_ctrls_for_ns).
func FindCtrlsForNamespace(nsSysfsPath, subsysnqn string) ([]string, error) {
	entries, err := os.ReadDir(sysfsNVMeRoot)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to scan topology")
	}

	nsReal, err := filepath.EvalSymlinks(nsSysfsPath)
	if err != nil {
		return nil, bderrors.Wrap(bderrors.KindProcessFailed, err, "failed to resolve %s", nsSysfsPath)
	}

	var matches []string
	for _, e := range entries {
		ctrlDir := filepath.Join(sysfsNVMeRoot, e.Name())
		if subsysnqn != "" && ctrlSubsysNQN(ctrlDir) != subsysnqn {
			continue
		}

		nsEntries, err := os.ReadDir(ctrlDir)
		if err != nil {
			continue
		}
		for _, ns := range nsEntries {
			if !strings.Contains(ns.Name(), "n1") && !strings.HasPrefix(ns.Name(), e.Name()+"n") {
				continue
			}
			real, err := filepath.EvalSymlinks(filepath.Join(ctrlDir, ns.Name()))
			if err == nil && real == nsReal {
				ctrlReal, err := filepath.EvalSymlinks(ctrlDir)
				if err == nil {
					matches = append(matches, ctrlReal)
				}
				break
			}
		}
	}

	return matches, nil
}

// GetHostNQN reads the persisted Host NQN from /etc/nvme/hostnqn,
// returning "" if it has never been set (bd_nvme_get_host_nqn).
func GetHostNQN() (string, error) {
	return readIdentityFile(hostnqnPath)
}

// GetHostID reads the persisted Host ID from /etc/nvme/hostid, returning
// "" if it has never been set (bd_nvme_get_host_id).
func GetHostID() (string, error) {
	return readIdentityFile(hostidPath)
}

func readIdentityFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", bderrors.Wrap(bderrors.KindProcessFailed, err, "error reading %s", path)
	}
	return strings.TrimSpace(string(b)), nil
}

// SetHostNQN writes hostNQN to /etc/nvme/hostnqn, creating the parent
// directory if necessary (bd_nvme_set_host_nqn). No validation of the
// string is performed.
func SetHostNQN(hostNQN string) error {
	return writeIdentityFile(hostnqnPath, hostNQN)
}

// SetHostID writes hostID to /etc/nvme/hostid (bd_nvme_set_host_id). No
// validation of the string is performed.
func SetHostID(hostID string) error {
	return writeIdentityFile(hostidPath, hostID)
}

func writeIdentityFile(path, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return bderrors.Wrap(bderrors.KindProcessFailed, err, "error creating %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0640); err != nil {
		return bderrors.Wrap(bderrors.KindProcessFailed, err, "error writing %s", path)
	}
	return nil
}

// GenerateHostNQN computes a new Host NQN for the current system
// (bd_nvme_generate_host_nqn). The source derives this from DMI/device
// tree identifiers where available; lacking a portable Go equivalent for
// that lookup, a randomly generated UUID is used instead, in the same
// "nqn.2014-08.org.nvmexpress:uuid:<uuid>" form nvme-cli itself falls
// back to when no stable system identifier is available.
func GenerateHostNQN() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", bderrors.Wrap(bderrors.KindProcessFailed, err, "unable to generate Host NQN")
	}
	return fmt.Sprintf("nqn.2014-08.org.nvmexpress:uuid:%s", id.String()), nil
}

// MaxDiscoveryRetries bounds how many times a caller polling a
// newly-connected controller for readiness should retry before giving up
// (MAX_DISC_RETRIES in the source).
const MaxDiscoveryRetries = 10
