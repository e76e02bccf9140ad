package nvmefabrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withScratchIdentityFiles(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origNQN, origID := hostnqnPath, hostidPath
	hostnqnPath = filepath.Join(dir, "hostnqn")
	hostidPath = filepath.Join(dir, "hostid")
	t.Cleanup(func() {
		hostnqnPath, hostidPath = origNQN, origID
	})
}

func TestGetHostNQNMissingFileReturnsEmpty(t *testing.T) {
	withScratchIdentityFiles(t)

	v, err := GetHostNQN()
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestSetAndGetHostNQNRoundTrip(t *testing.T) {
	withScratchIdentityFiles(t)

	assert.NoError(t, SetHostNQN("nqn.2014-08.org.nvmexpress:uuid:abc"))
	v, err := GetHostNQN()
	assert.NoError(t, err)
	assert.Equal(t, "nqn.2014-08.org.nvmexpress:uuid:abc", v)
}

func TestSetAndGetHostIDRoundTrip(t *testing.T) {
	withScratchIdentityFiles(t)

	assert.NoError(t, SetHostID("11111111-2222-3333-4444-555555555555"))
	v, err := GetHostID()
	assert.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", v)
}

func TestGenerateHostNQNFormat(t *testing.T) {
	nqn, err := GenerateHostNQN()
	assert.NoError(t, err)
	assert.Regexp(t, `^nqn\.2014-08\.org\.nvmexpress:uuid:[0-9a-f-]{36}$`, nqn)
}

func TestResolveHostIdentityDerivesIDFromNQNUUID(t *testing.T) {
	withScratchIdentityFiles(t)

	nqn, id, err := resolveHostIdentity("nqn.2014-08.org.nvmexpress:uuid:deadbeef-0000-0000-0000-000000000000", "")
	assert.NoError(t, err)
	assert.Equal(t, "nqn.2014-08.org.nvmexpress:uuid:deadbeef-0000-0000-0000-000000000000", nqn)
	assert.Equal(t, "deadbeef-0000-0000-0000-000000000000", id)
}

func TestResolveHostIdentityPrefersExplicitOverride(t *testing.T) {
	withScratchIdentityFiles(t)
	assert.NoError(t, SetHostNQN("nqn.persisted"))
	assert.NoError(t, SetHostID("persisted-id"))

	nqn, id, err := resolveHostIdentity("nqn.explicit", "explicit-id")
	assert.NoError(t, err)
	assert.Equal(t, "nqn.explicit", nqn)
	assert.Equal(t, "explicit-id", id)
}

func TestBuildConnectStringOrdersFieldsAndSkipsEmpty(t *testing.T) {
	opts := ConnectOptions{
		SubsysNQN:     "nqn.test",
		Transport:     "tcp",
		TransportAddr: "10.0.0.1",
	}
	got := buildConnectString(opts, "nqn.host", "host-id")
	assert.Equal(t, "transport=tcp,nqn=nqn.test,traddr=10.0.0.1,hostnqn=nqn.host,hostid=host-id", got)
}

func TestConnectRejectsMissingSubsysNQN(t *testing.T) {
	err := Connect(context.Background(), ConnectOptions{Transport: "tcp", TransportAddr: "10.0.0.1"})
	assert.Error(t, err)
}

func TestConnectRejectsMissingTransport(t *testing.T) {
	err := Connect(context.Background(), ConnectOptions{SubsysNQN: "nqn.test", TransportAddr: "10.0.0.1"})
	assert.Error(t, err)
}

func TestConnectRejectsMissingAddrForNonLoopTransport(t *testing.T) {
	err := Connect(context.Background(), ConnectOptions{SubsysNQN: "nqn.test", Transport: "tcp"})
	assert.Error(t, err)
}

func TestConnectAllowsMissingAddrForLoopTransport(t *testing.T) {
	withScratchIdentityFiles(t)
	orig := fabricsDevice
	fabricsDevice = filepath.Join(t.TempDir(), "does-not-exist")
	defer func() { fabricsDevice = orig }()

	err := Connect(context.Background(), ConnectOptions{SubsysNQN: "nqn.test", Transport: "loop"})
	assert.Error(t, err) // fabricsDevice doesn't exist, but validation itself passed
}

func withScratchSysfsRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := sysfsNVMeRoot
	sysfsNVMeRoot = dir
	t.Cleanup(func() { sysfsNVMeRoot = orig })
	return dir
}

func makeCtrl(t *testing.T, root, name, subsysnqn string) {
	t.Helper()
	ctrlDir := filepath.Join(root, name)
	assert.NoError(t, os.MkdirAll(ctrlDir, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(ctrlDir, "subsysnqn"), []byte(subsysnqn+"\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(ctrlDir, "delete_controller"), []byte{}, 0644))
}

func TestDisconnectMatchesBySubsysNQN(t *testing.T) {
	root := withScratchSysfsRoot(t)
	makeCtrl(t, root, "nvme0", "nqn.target")
	makeCtrl(t, root, "nvme1", "nqn.other")

	assert.NoError(t, Disconnect("nqn.target"))
}

func TestDisconnectNoMatchReturnsError(t *testing.T) {
	root := withScratchSysfsRoot(t)
	makeCtrl(t, root, "nvme0", "nqn.other")

	err := Disconnect("nqn.target")
	assert.Error(t, err)
}

func TestDisconnectByPathStripsDevPrefix(t *testing.T) {
	root := withScratchSysfsRoot(t)
	makeCtrl(t, root, "nvme0", "nqn.target")

	assert.NoError(t, DisconnectByPath("/dev/nvme0"))
}
