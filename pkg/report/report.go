// Package report renders verification results as text, YAML or CBOR.
package report

import (
	"fmt"
	"io"
	"strings"

	"framecheck/pkg/color"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// canonical mode keeps CBOR output byte-identical across runs
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Report holds the results of one run, in input order.
type Report struct {
	Files []File `yaml:"files" cbor:"files"`
}

// File is the result for one source file. Error is set when the file could
// not be read or parsed, in which case Methods is empty.
type File struct {
	Path    string   `yaml:"path" cbor:"path"`
	Error   string   `yaml:"error,omitempty" cbor:"error,omitempty"`
	Methods []Method `yaml:"methods,omitempty" cbor:"methods,omitempty"`
}

// Method is the result of validating one method.
type Method struct {
	Class    string  `yaml:"class" cbor:"class"`
	Name     string  `yaml:"name" cbor:"name"`
	Desc     string  `yaml:"desc" cbor:"desc"`
	OK       bool    `yaml:"ok" cbor:"ok"`
	Offset   *int    `yaml:"offset,omitempty" cbor:"offset,omitempty"`
	Category string  `yaml:"category,omitempty" cbor:"category,omitempty"`
	Error    string  `yaml:"error,omitempty" cbor:"error,omitempty"`
	Frames   []Frame `yaml:"frames,omitempty" cbor:"frames,omitempty"`
}

// Frame is the rendered frame known at an instruction.
type Frame struct {
	Index  int    `yaml:"index" cbor:"index"`
	Insn   string `yaml:"insn" cbor:"insn"`
	Locals string `yaml:"locals" cbor:"locals"`
	Stack  string `yaml:"stack" cbor:"stack"`
}

// Summary counts the verified and failed methods and the unreadable files.
type Summary struct {
	Methods     int
	Failed      int
	BrokenFiles int
}

func (r *Report) Summary() Summary {
	var s Summary
	for _, f := range r.Files {
		if f.Error != "" {
			s.BrokenFiles++
		}
		for _, m := range f.Methods {
			s.Methods++
			if !m.OK {
				s.Failed++
			}
		}
	}

	return s
}

// Failed reports whether any file or method failed.
func (r *Report) Failed() bool {
	s := r.Summary()
	return s.Failed > 0 || s.BrokenFiles > 0
}

// Write renders r to w in the given format: text, yaml or cbor.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "text", "":
		return r.WriteText(w)
	case "yaml":
		return r.WriteYAML(w)
	case "cbor":
		return r.WriteCBOR(w)
	}

	return fmt.Errorf("unknown report format %q", format)
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode yaml: %w", err)
	}

	return enc.Close()
}

func (r *Report) WriteCBOR(w io.Writer) error {
	data, err := r.EncodeCBOR()
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// EncodeCBOR serializes r to canonical CBOR.
func (r *Report) EncodeCBOR() ([]byte, error) {
	data, err := cborEncMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("report: marshal cbor: %w", err)
	}

	return data, nil
}

// DecodeCBOR decodes a report produced by EncodeCBOR.
func DecodeCBOR(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal cbor: %w", err)
	}

	return &r, nil
}

// WriteText renders a human readable report with colors when enabled.
func (r *Report) WriteText(w io.Writer) error {
	var sb strings.Builder
	for _, f := range r.Files {
		sb.WriteString(color.BoldText(f.Path))
		sb.WriteByte('\n')

		if f.Error != "" {
			sb.WriteString(indent(color.Error(f.Error), "  "))
			continue
		}

		for _, m := range f.Methods {
			name := fmt.Sprintf("%s.%s%s", m.Class, m.Name, m.Desc)
			if m.OK {
				fmt.Fprintf(&sb, "  %s %s\n", color.GreenText("ok  "), name)
			} else {
				fmt.Fprintf(&sb, "  %s %s\n", color.RedText("FAIL"), name)
				sb.WriteString(indent(color.GrayText(m.Error), "       "))
			}

			for _, fr := range m.Frames {
				fmt.Fprintf(&sb, "       %s %-24s %s | %s\n",
					color.CyanText(fmt.Sprintf("%4d", fr.Index)),
					fr.Insn,
					color.BlueText(fr.Locals),
					color.YellowText(fr.Stack))
			}
		}
	}

	s := r.Summary()
	summary := fmt.Sprintf("%d methods, %d failed", s.Methods, s.Failed)
	if s.BrokenFiles > 0 {
		summary += fmt.Sprintf(", %d unreadable files", s.BrokenFiles)
	}
	if r.Failed() {
		sb.WriteString(color.Error(summary))
	} else {
		sb.WriteString(color.Success(summary))
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func indent(text, prefix string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	return sb.String()
}
