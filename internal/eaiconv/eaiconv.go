// internal/eaiconv/eaiconv.go
package eaiconv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/eaicheck/checker"
	"github.com/dalemusser/eaicheck/eai"
	"github.com/dalemusser/eaicheck/logging"
	"github.com/dalemusser/eaicheck/pantry/version"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitUsage   = 2
)

// maxLine bounds one stdin line; longer lines fail the scan.
const maxLine = 64 << 10

// Run is the entrypoint for the eaiconv binary.
//
// binName is the CLI name to show in help/usage text.
// args are the command-line arguments excluding the binary name (i.e. os.Args[1:]).
// Addresses come from args after the command, or one per line from in.
//
// It returns a process exit code; callers should os.Exit(Run(...)).
func Run(binName string, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) < 1 {
		usage(binName, errOut)
		return ExitUsage
	}

	switch args[0] {
	case "check", "ascii", "validate":
		return runCmd(binName, args[0], args[1:], in, out, errOut)
	case "version":
		fmt.Fprintln(out, version.String())
		return ExitOK
	case "help", "-h", "--help":
		usage(binName, out)
		return ExitOK
	default:
		fmt.Fprintf(errOut, "unknown command: %q\n\n", args[0])
		usage(binName, errOut)
		return ExitUsage
	}
}

func usage(binName string, w io.Writer) {
	fmt.Fprintf(w, "EAI address converter (%s)\n", binName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s check    [flags] [address...]   JSON report per address\n", binName)
	fmt.Fprintf(w, "  %s ascii    [flags] [address...]   domain in ACE form\n", binName)
	fmt.Fprintf(w, "  %s validate [flags] [address...]   ok or error code\n", binName)
	fmt.Fprintf(w, "  %s version\n", binName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "With no addresses, one address per line is read from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example:")
	fmt.Fprintf(w, "  %s ascii '用户@例え.jp'\n", binName)
}

func runCmd(binName, cmd string, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	quoted := fs.Bool("quoted", false, `accept a "quoted" local part`)
	logLevel := fs.String("log-level", "warn", "log level for diagnostics (debug shows every rejection)")
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: %s %s [flags] [address...]\n", binName, cmd)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if !logging.IsValidLogLevel(*logLevel) {
		fmt.Fprintf(errOut, "error: invalid --log-level %q\n", *logLevel)
		return ExitUsage
	}

	logger, err := logging.BuildLogger(*logLevel, "dev")
	if err != nil {
		fmt.Fprintf(errOut, "error: build logger: %v\n", err)
		return ExitUsage
	}
	defer logger.Sync()

	engine := eai.New(
		eai.WithSink(logging.NewSink(logger, false)),
		eai.WithQuotedLocal(*quoted),
	)
	if err := eai.CheckCapability(engine.Unicode()); err != nil {
		logger.Error("unicode capability check failed", zap.Error(err))
		return ExitInvalid
	}
	svc := checker.NewService(engine, checker.Options{Logger: logger})

	w := bufio.NewWriter(out)
	// bufio.Writer keeps its first error, so Flush reports any failed write.
	finish := func(code int) int {
		if err := w.Flush(); err != nil {
			logger.Error("write output", zap.Error(err))
			return ExitInvalid
		}
		return code
	}
	p := printer{cmd: cmd, w: w, enc: json.NewEncoder(w)}
	p.enc.SetEscapeHTML(false)

	ctx := context.Background()
	failed := false
	each := func(addr string) {
		if !p.print(svc.Check(ctx, addr)) {
			failed = true
		}
	}

	if fs.NArg() > 0 {
		for _, addr := range fs.Args() {
			each(addr)
		}
	} else {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 4096), maxLine)
		for sc.Scan() {
			line := sc.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			each(line)
		}
		if err := sc.Err(); err != nil {
			logger.Error("read stdin", zap.Error(err))
			return finish(ExitInvalid)
		}
	}

	if failed {
		return finish(ExitInvalid)
	}
	return finish(ExitOK)
}

type printer struct {
	cmd string
	w   *bufio.Writer
	enc *json.Encoder
}

// print writes one result line and reports whether the address passed.
func (p printer) print(rep checker.Report) bool {
	switch p.cmd {
	case "check":
		if err := p.enc.Encode(rep); err != nil {
			return false
		}
		return rep.Valid && rep.ASCIIOK
	case "ascii":
		if rep.Valid && rep.ASCIIOK {
			fmt.Fprintln(p.w, rep.ASCII)
			return true
		}
		kind := rep.Kind
		if rep.Valid {
			kind = rep.ASCIIKind
		}
		fmt.Fprintf(p.w, "error\t%s\t%s\n", kind, kind.Message())
		return false
	default:
		if rep.Valid {
			fmt.Fprintln(p.w, "ok")
			return true
		}
		fmt.Fprintf(p.w, "%s\t%s\n", rep.Kind, rep.Message)
		return false
	}
}
