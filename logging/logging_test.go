package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitApplicationLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		ApplicationLogPrefix: "[test-router]",
		ApplicationLogOutput: &buf,
	})

	DefaultLog{}.Infof("hello, %s", "world")

	out := buf.String()
	assert.Contains(t, out, "[test-router]")
	assert.Contains(t, out, "hello, world")
}

func TestInitJSONLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		ApplicationLogOutput:      &buf,
		ApplicationLogJSONEnabled: true,
	})

	DefaultLog{}.Info("structured")
	assert.Contains(t, buf.String(), `"msg":"structured"`)
}
