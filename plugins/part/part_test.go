package part

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTableRejectsNonexistentDevice(t *testing.T) {
	err := CreateTable(context.Background(), "/dev/does-not-exist-blockdev-test", "gpt")
	assert.Error(t, err)
}

func TestRemovePartitionRejectsNonexistentDevice(t *testing.T) {
	err := RemovePartition(context.Background(), "/dev/does-not-exist-blockdev-test", 1)
	assert.Error(t, err)
}
