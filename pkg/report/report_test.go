package report

import (
	"bytes"
	"testing"

	"framecheck/pkg/color"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func offset(n int) *int {
	return &n
}

func sample() *Report {
	return &Report{Files: []File{
		{
			Path: "a.jasm",
			Methods: []Method{
				{Class: "Test", Name: "f", Desc: "()V", OK: true, Frames: []Frame{
					{Index: 0, Insn: "return", Locals: "", Stack: ""},
				}},
				{
					Class: "Test", Name: "g", Desc: "(I)I",
					Offset:   offset(2),
					Category: "missing frame",
					Error:    "error at instruction 2: expected stack map frame at instruction 5",
				},
			},
		},
		{Path: "broken.jasm", Error: "1 syntax errors:\nError at 1:1: Expected class declaration"},
	}}
}

func TestSummary(t *testing.T) {
	r := sample()

	assert.Equal(t, Summary{Methods: 2, Failed: 1, BrokenFiles: 1}, r.Summary())
	assert.True(t, r.Failed())

	ok := &Report{Files: []File{{Path: "a.jasm", Methods: []Method{{OK: true}}}}}
	assert.False(t, ok.Failed())
}

func TestWriteText(t *testing.T) {
	color.EnableColor(false)

	var buf bytes.Buffer
	require.NoError(t, sample().WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "a.jasm\n")
	assert.Contains(t, out, "  ok   Test.f()V\n")
	assert.Contains(t, out, "  FAIL Test.g(I)I\n")
	assert.Contains(t, out, "       error at instruction 2: expected stack map frame at instruction 5\n")
	assert.Contains(t, out, "  Error: 1 syntax errors:\n  Error at 1:1: Expected class declaration\n")
	assert.Contains(t, out, "Error: 2 methods, 1 failed, 1 unreadable files\n")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().Write(&buf, "yaml"))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sample(), &decoded)
	assert.NotContains(t, buf.String(), "offset: null")
}

func TestCBORIsDeterministic(t *testing.T) {
	first, err := sample().EncodeCBOR()
	require.NoError(t, err)

	second, err := sample().EncodeCBOR()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, err := DecodeCBOR(first)
	require.NoError(t, err)
	assert.Equal(t, sample(), decoded)
}

func TestUnknownFormat(t *testing.T) {
	err := sample().Write(&bytes.Buffer{}, "xml")
	assert.EqualError(t, err, `unknown report format "xml"`)
}
