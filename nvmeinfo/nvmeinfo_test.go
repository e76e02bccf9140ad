package nvmeinfo

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructSizes(t *testing.T) {
	assert.Equal(t, uintptr(72), unsafe.Sizeof(PassthruCommand{}))
	assert.Equal(t, uintptr(4096), unsafe.Sizeof(IdentController{}))
	assert.Equal(t, uintptr(4096), unsafe.Sizeof(IdentNamespace{}))
	assert.Equal(t, uintptr(512), unsafe.Sizeof(SMARTLog{}))
	assert.Equal(t, uintptr(64), unsafe.Sizeof(ErrorLogEntry{}))
}

func TestIOWRMatchesAdminCmd(t *testing.T) {
	// NVME_IOCTL_ADMIN_CMD = 0xc0484e41 on amd64/arm64 (72-byte payload).
	assert.Equal(t, uintptr(0xc0484e41), nvmeIOCTLAdminCmd)
}

func buildControllerBuf(t *testing.T) []byte {
	t.Helper()
	var ic IdentController
	copy(ic.ModelNumber[:], []byte("Sample NVMe SSD                        "))
	copy(ic.SerialNumber[:], []byte("SN0123456789ABCDEF01"))
	copy(ic.Firmware[:], []byte("1.0.0   "))
	ic.VendorID = 0x144d
	ic.Cntlid = 1
	ic.Ver = (1 << 16) | (2 << 8) | 1
	ic.Nn = 1
	ic.Cmic = 0x1
	ic.Oacs = 0x18
	copy(ic.Subnqn[:], []byte("nqn.2014.08.org.nvmexpress:uuid:sample\x00"))

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &ic))
	return buf.Bytes()
}

func TestDecodeController(t *testing.T) {
	info, err := DecodeController(buildControllerBuf(t))
	require.NoError(t, err)

	assert.Equal(t, uint16(0x144d), info.PCIVendorID)
	assert.Contains(t, info.Model, "Sample NVMe SSD")
	assert.Equal(t, "SN0123456789ABCDEF01", info.Serial)
	assert.Equal(t, "1.2.1", info.NVMeVersion)
	assert.True(t, info.Features&FeatureMultipath != 0)
	assert.True(t, info.Features&FeatureNamespaceManagement != 0)
	assert.True(t, info.Features&FeatureSelftest != 0)
	assert.Contains(t, info.SubsystemNQN, "nqn.2014.08.org.nvmexpress")
}

func TestDecodeControllerShortBuffer(t *testing.T) {
	_, err := DecodeController([]byte{1, 2, 3})
	assert.Error(t, err)
}

func buildNamespaceBuf(t *testing.T) []byte {
	t.Helper()
	var ns IdentNamespace
	ns.Nsze = 1000000
	ns.Ncap = 1000000
	ns.Nuse = 500000
	ns.Nlbaf = 0
	ns.Flbas = 0
	ns.Lbaf[0] = LBAF{Ds: 9}
	ns.Nsfeat = 0x1
	ns.Nmic = 0x1

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &ns))
	return buf.Bytes()
}

func TestDecodeNamespace(t *testing.T) {
	info, err := DecodeNamespace(1, buildNamespaceBuf(t))
	require.NoError(t, err)

	assert.Equal(t, uint32(1), info.NSID)
	assert.Equal(t, uint64(1000000), info.Size)
	assert.Equal(t, uint64(500000), info.Utilization)
	assert.True(t, info.Features&NSFeatureThinProvisioning != 0)
	assert.True(t, info.Features&NSFeatureMultipathShared != 0)
	require.Len(t, info.LBAFormats, 1)
	assert.Equal(t, uint8(9), info.LBAFormats[0].Ds)
}

func TestDecodeSMARTLog(t *testing.T) {
	var sl SMARTLog
	sl.CritWarning = 0
	sl.Temperature = [2]uint8{0x6e, 0x01} // 0x16e = 366 K
	sl.AvailSpare = 100
	sl.PercentUsed = 3
	binary.LittleEndian.PutUint64(sl.PowerOnHours[:8], 1200)

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &sl))

	health, err := DecodeSMARTLog(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, float64(0x16e), health.TemperatureKelvin)
	assert.Equal(t, uint8(100), health.AvailSparePct)
	assert.Equal(t, uint8(3), health.PercentUsed)
	assert.Equal(t, uint64(1200), health.PowerOnHours.Uint64())
}

func TestDecodeErrorLogStopsAtZeroEntry(t *testing.T) {
	var entries [3]ErrorLogEntry
	entries[0].ErrorCount = 1
	entries[0].Status = 0x4002
	entries[1].ErrorCount = 2
	// entries[2] left zeroed - marks end of valid entries

	buf := &bytes.Buffer{}
	for _, e := range entries {
		require.NoError(t, binary.Write(buf, binary.LittleEndian, &e))
	}

	got, err := DecodeErrorLog(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ErrorCount)
	assert.Equal(t, uint64(2), got[1].ErrorCount)
}

func TestDecodeErrorLogBadLength(t *testing.T) {
	_, err := DecodeErrorLog(make([]byte, 10))
	assert.Error(t, err)
}

func TestDecodeSelfTestLog(t *testing.T) {
	var log SelfTestLog
	log.CurrentOp = 0
	log.CurrentComplete = 100
	log.Results[0].Status = 0x0
	log.Results[0].POHours = 500

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &log))

	got, err := DecodeSelfTestLog(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint8(100), got.CurrentComplete)
	assert.Equal(t, uint64(500), got.Results[0].POHours)
}

func TestDecodeVersion(t *testing.T) {
	assert.Equal(t, "1.2.1", decodeVersion((1<<16)|(2<<8)|1))
	assert.Equal(t, "1.3", decodeVersion((1<<16)|(3<<8)))
}
