package checker

import (
	"context"
	"fmt"
	"io"
	"os"

	"framecheck/internal/config"
	"framecheck/pkg/analysis"
	"framecheck/pkg/interpreter"
	"framecheck/pkg/jvm"
	"framecheck/pkg/parser"
	"framecheck/pkg/report"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Checker struct {
	Domain  string    // Value domain: basic or verify
	Format  string    // Report format: text, yaml or cbor
	Frames  bool      // Include computed frames in the report
	Workers int       // Methods validated concurrently
	Files   []string  // Source files to verify
	Out     io.Writer // Report destination, stdout when nil

	// Classes known to the hierarchy besides the ones in Files
	Classes []interpreter.ClassInfo
}

// FromConfig creates a checker with the settings of c.
func FromConfig(c *config.Config) *Checker {
	return &Checker{
		Domain:  c.Run.Domain,
		Format:  c.Run.Format,
		Frames:  c.Run.Frames,
		Workers: c.Run.Workers,
		Classes: c.ClassInfos(),
	}
}

// source is a parsed input file.
type source struct {
	path    string
	classes []*jvm.Class
}

// job is one method to validate; the result goes to methods[index].
type job struct {
	file   int
	index  int
	owner  string
	method *jvm.Method
}

// Verify parses every file, validates the frames of every method and writes
// the report. The returned report is also meant for the exit status: a
// failed method is not an error.
func (opts *Checker) Verify(ctx context.Context) (*report.Report, error) {
	rep := &report.Report{Files: make([]report.File, len(opts.Files))}
	sources := make([]source, len(opts.Files))

	for i, path := range opts.Files {
		rep.Files[i].Path = path
		sources[i].path = path

		log.Debug("Processing file", "file", path)
		classes, err := parseFile(path)
		if err != nil {
			log.Error("Failed to load file", "file", path, "error", err)
			rep.Files[i].Error = err.Error()
			continue
		}
		sources[i].classes = classes
	}

	interp, err := opts.interpreter(sources)
	if err != nil {
		return nil, err
	}

	var jobs []job
	for i, src := range sources {
		for _, class := range src.classes {
			for _, m := range class.Methods {
				jobs = append(jobs, job{file: i, index: len(rep.Files[i].Methods), owner: class.Name, method: m})
				rep.Files[i].Methods = append(rep.Files[i].Methods, report.Method{
					Class: class.Name,
					Name:  m.Name,
					Desc:  m.Desc,
				})
			}
		}
	}

	if err := opts.validate(ctx, analysis.NewAnalyzer(interp), jobs, rep); err != nil {
		return nil, err
	}

	if err := rep.Write(opts.out(), opts.Format); err != nil {
		return nil, fmt.Errorf("writing report failed: %w", err)
	}

	return rep, nil
}

// validate runs the jobs on at most Workers goroutines. Each job writes its
// own slot of rep, so the report order does not depend on scheduling.
func (opts *Checker) validate(ctx context.Context, a *analysis.Analyzer, jobs []job, rep *report.Report) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result := &rep.Files[j.file].Methods[j.index]
			table, err := a.Validate(j.owner, j.method)
			if err != nil {
				log.Error("Validation failed", "method", j.owner+"."+j.method.String(), "error", err)
				describeFailure(result, err)
				return nil
			}

			log.Debug("Validated method", "method", j.owner+"."+j.method.String(), "insns", len(j.method.Insns))
			result.OK = true
			if opts.Frames {
				result.Frames = renderFrames(j.method, table)
			}
			return nil
		})
	}

	return g.Wait()
}

func (opts *Checker) interpreter(sources []source) (*interpreter.Interpreter, error) {
	switch opts.Domain {
	case config.DomainBasic, "":
		return interpreter.NewInterpreter(), nil
	case config.DomainVerify:
	default:
		return nil, fmt.Errorf("unknown domain %q", opts.Domain)
	}

	h, err := interpreter.NewHierarchy(opts.Classes...)
	if err != nil {
		return nil, err
	}

	for _, src := range sources {
		for _, class := range src.classes {
			info := interpreter.ClassInfo{
				Name:       class.Name,
				Super:      class.Super,
				Interfaces: class.Interfaces,
				Interface:  class.IsInterface(),
			}
			if err := h.Add(info); err != nil {
				return nil, fmt.Errorf("%s: %w", src.path, err)
			}
		}
	}
	log.Debug("Class hierarchy ready", "classes", h.Len())

	return interpreter.NewInterpreter(interpreter.WithVerification(h)), nil
}

func (opts *Checker) out() io.Writer {
	if opts.Out == nil {
		return os.Stdout
	}

	return opts.Out
}

func parseFile(path string) ([]*jvm.Class, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parser.ParseSource(string(input))
}

// categories in the order they are looked up in an error chain
var categories = []struct {
	err  error
	name string
}{
	{analysis.ErrMissingFrame, "missing frame"},
	{analysis.ErrIncompatibleFrame, "incompatible frame"},
	{analysis.ErrIllegalFrame, "illegal frame"},
	{analysis.ErrUnsupported, "unsupported"},
}

func describeFailure(result *report.Method, err error) {
	result.Error = err.Error()
	result.Category = "invalid code"
	for _, c := range categories {
		if errors.Is(err, c.err) {
			result.Category = c.name
			break
		}
	}

	var located *analysis.Error
	if errors.As(err, &located) {
		offset := located.Offset
		result.Offset = &offset
	}
}

func renderFrames(m *jvm.Method, table analysis.FrameTable) []report.Frame {
	frames := make([]report.Frame, 0, len(table))
	for i, f := range table {
		if f == nil {
			continue
		}
		frames = append(frames, report.Frame{
			Index:  i,
			Insn:   m.Insns[i].String(),
			Locals: f.LocalsString(),
			Stack:  f.StackString(),
		})
	}

	return frames
}
