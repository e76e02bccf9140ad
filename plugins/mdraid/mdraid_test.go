package mdraid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateRejectsEmptyDiskList(t *testing.T) {
	err := Create(context.Background(), "test0", "1", nil, 0, "", false)
	assert.Error(t, err)
}

func TestExamineMissingDeviceReturnsError(t *testing.T) {
	_, err := Examine(context.Background(), "/dev/does-not-exist-blockdev-test")
	assert.Error(t, err)
}

func TestParseExportFieldsTrimsQuotesAndSkipsMalformedLines(t *testing.T) {
	out := "MD_LEVEL=raid1\nMD_UUID=\"1234:5678\"\nnot-a-field\nMD_DEVICES=2\n"
	fields := parseExportFields(out)

	assert.Equal(t, "raid1", fields["MD_LEVEL"])
	assert.Equal(t, "1234:5678", fields["MD_UUID"])
	assert.Equal(t, "2", fields["MD_DEVICES"])
	assert.NotContains(t, fields, "not-a-field")
}
