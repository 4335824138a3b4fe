package cmd

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCmd_UnknownTarget(t *testing.T) {
	cmd := BuildCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--target", "esp32"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, `unknown target "esp32"`)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, target{os: "linux", arch: "arm"}, targets["nanopi"])
	assert.Equal(t, target{os: "linux", arch: "arm64"}, targets["rpi"])
}
