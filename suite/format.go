package suite

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"
)

const rule = "--------------------------------------------------------------------------------"

func statusLabel(s Status) string {
	switch s {
	case Passed:
		return color.Green.Sprint("PASS")
	case Failed:
		return color.Red.Sprint("FAIL")
	case Errored:
		return color.Red.Sprint("ERR ")
	case Skipped:
		return color.Yellow.Sprint("SKIP")
	case Unchecked:
		return color.Yellow.Sprint("NEW ")
	}
	return "????"
}

// FirstDifference returns the 1-based line where got and want diverge
// along with both lines, or 0 when they are equal.
func FirstDifference(got, want string) (int, string, string) {
	if got == want {
		return 0, "", ""
	}
	g := strings.Split(got, "\n")
	w := strings.Split(want, "\n")
	for i := 0; ; i++ {
		var gl, wl string
		gok, wok := i < len(g), i < len(w)
		if gok {
			gl = g[i]
		}
		if wok {
			wl = w[i]
		}
		if !gok || !wok || gl != wl {
			return i + 1, gl, wl
		}
	}
}

// WriteFailure describes one failed result.
func WriteFailure(w io.Writer, r *Result) {
	fmt.Fprintln(w, color.Gray.Sprint(rule))
	fmt.Fprintf(w, "%s %s %s\n", statusLabel(r.Status), color.Bold.Sprint(r.Case.Name), color.Gray.Sprintf("[%s]", r.Backend))
	fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("File:"), r.Case.File)
	if r.Err != nil {
		fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("Error:"), color.Red.Sprint(r.Err))
	}
	if r.Status == Failed {
		line, got, want := FirstDifference(r.Output, r.Case.Expected)
		fmt.Fprintf(w, "%s line %d\n", color.Bold.Sprint("First difference:"), line)
		fmt.Fprintf(w, "  want: %q\n", want)
		fmt.Fprintf(w, "  got:  %q\n", got)
	}
	if r.Output != "" {
		fmt.Fprintln(w, color.Cyan.Sprint("Output:"))
		iw := &indentWriter{w: w, indent: "  | ", atLineStart: true}
		io.WriteString(iw, r.Output)
		if !strings.HasSuffix(r.Output, "\n") {
			io.WriteString(w, "\n")
		}
	}
}

// WriteSummary prints the failures followed by the totals.
func WriteSummary(w io.Writer, s *Summary) {
	for _, r := range s.Failures() {
		WriteFailure(w, r)
	}
	if len(s.Disagreements) > 0 {
		fmt.Fprintln(w, color.Gray.Sprint(rule))
		fmt.Fprintln(w, color.Red.Sprintf("Backends disagree on %d case(s):", len(s.Disagreements)))
		for _, name := range s.Disagreements {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	fmt.Fprintln(w, color.Gray.Sprint(rule))
	parts := []string{
		color.Green.Sprintf("%d passed", s.Counts[Passed]),
		fmt.Sprintf("%d failed", s.Counts[Failed]),
		fmt.Sprintf("%d errored", s.Counts[Errored]),
	}
	if n := s.Counts[Skipped]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := s.Counts[Unchecked]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d without expected output", n))
	}
	fmt.Fprintf(w, "%s on %s in %s\n", strings.Join(parts, ", "), strings.Join(s.Backends, ", "), s.Elapsed.Round(time.Microsecond))
}

// indentWriter prefixes every line written through it.
type indentWriter struct {
	w           io.Writer
	indent      string
	atLineStart bool
}

func (iw *indentWriter) Write(p []byte) (n int, err error) {
	total := 0
	for len(p) > 0 {
		if iw.atLineStart {
			if _, err := io.WriteString(iw.w, iw.indent); err != nil {
				return total, err
			}
			iw.atLineStart = false
		}
		idx := 0
		for idx < len(p) && p[idx] != '\n' {
			idx++
		}
		if idx < len(p) {
			idx++
			iw.atLineStart = true
		}
		written, err := iw.w.Write(p[:idx])
		total += written
		if err != nil {
			return total, err
		}
		p = p[idx:]
	}
	return total, nil
}
