package mpath

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMpathMemberFalseOnMissingTool(t *testing.T) {
	assert.False(t, IsMpathMember(context.Background(), "/dev/does-not-exist-blockdev-test"))
}
