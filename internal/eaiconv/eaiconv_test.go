package eaiconv

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/eaicheck/checker"
	"github.com/dalemusser/eaicheck/eai"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run("eaiconv", args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := run(t, "")
	if code != ExitUsage || !strings.Contains(errOut, "Usage:") {
		t.Errorf("no args: code=%d stderr=%q", code, errOut)
	}

	code, _, errOut = run(t, "", "frobnicate")
	if code != ExitUsage || !strings.Contains(errOut, `unknown command: "frobnicate"`) {
		t.Errorf("unknown: code=%d stderr=%q", code, errOut)
	}

	code, out, _ := run(t, "", "help")
	if code != ExitOK || !strings.Contains(out, "ascii") {
		t.Errorf("help: code=%d stdout=%q", code, out)
	}

	code, _, _ = run(t, "", "check", "--log-level", "loud", "a@b.co")
	if code != ExitUsage {
		t.Errorf("bad log level: code=%d", code)
	}
}

func TestRun_ASCII(t *testing.T) {
	code, out, _ := run(t, "", "ascii", "用户@例え.jp", "user@Example.COM")
	if code != ExitOK {
		t.Fatalf("code = %d", code)
	}
	want := "用户@xn--r8jz45g.jp\nuser@Example.COM\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRun_ASCIIFailure(t *testing.T) {
	code, out, _ := run(t, "", "ascii", "a@b")
	if code != ExitInvalid {
		t.Errorf("code = %d, want %d", code, ExitInvalid)
	}
	want := "error\tdomain_too_short\t" + eai.DomainTooShort.Message() + "\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRun_ValidateFromStdin(t *testing.T) {
	in := "user@example.com\n\n  \nnobody\n用户@例え.jp\n"
	code, out, _ := run(t, in, "validate")
	if code != ExitInvalid {
		t.Errorf("code = %d, want %d", code, ExitInvalid)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	want := []string{"ok", "malformed_address\t" + eai.MalformedAddress.Message(), "ok"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRun_CheckJSON(t *testing.T) {
	code, out, _ := run(t, "", "check", "用户@例え.jp")
	if code != ExitOK {
		t.Fatalf("code = %d", code)
	}
	var rep checker.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !rep.Valid || !rep.Internationalized || rep.ASCII != "用户@xn--r8jz45g.jp" {
		t.Errorf("report = %+v", rep)
	}
	if !strings.Contains(out, `"ascii":"用户@xn--r8jz45g.jp"`) {
		t.Errorf("non-ASCII output should stay unescaped: %s", out)
	}
}

func TestRun_Quoted(t *testing.T) {
	addr := `"john.doe"@example.com`
	if code, _, _ := run(t, "", "validate", addr); code != ExitInvalid {
		t.Errorf("without --quoted: code = %d, want %d", code, ExitInvalid)
	}
	if code, _, _ := run(t, "", "validate", "--quoted", addr); code != ExitOK {
		t.Errorf("with --quoted: code = %d, want %d", code, ExitOK)
	}
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRun_WriteFailure(t *testing.T) {
	var errOut bytes.Buffer
	for _, cmd := range []string{"validate", "ascii", "check"} {
		code := Run("eaiconv", []string{cmd, "user@example.com"}, strings.NewReader(""), brokenPipe{}, &errOut)
		if code != ExitInvalid {
			t.Errorf("%s: code = %d, want %d", cmd, code, ExitInvalid)
		}
	}
}
