package extraarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsFlattening(t *testing.T) {
	extra := []ExtraArg{
		New("--force", ""),
		New("-y", ""),
		New("--config", "devices/filter=[]"),
	}

	assert.Equal(t, []string{"--force", "-y", "--config", "devices/filter=[]"}, Args(extra))
}

func TestArgsEmpty(t *testing.T) {
	assert.Equal(t, []string{}, Args(nil))
}

func TestString(t *testing.T) {
	assert.Equal(t, "--force", New("--force", "").String())
	assert.Equal(t, "--size 10G", New("--size", "10G").String())
}
