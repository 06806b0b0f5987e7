package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marrow-lang/marrow/interp"
	"github.com/marrow-lang/marrow/syntax"
	"github.com/marrow-lang/marrow/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl [FILE]",
	Short: "Start an interactive session, optionally preloading the functions of FILE",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := newSession(cmd.OutOrStdout())
		if len(args) == 1 {
			prog, err := loadAST(args[0])
			if err != nil {
				log.Fatal().Err(err).Msg("Couldn't parse")
			}
			for _, fn := range prog.Functions {
				s.define(fn)
			}
		}
		if err := s.loop(); err != nil {
			log.Fatal().Err(err).Msg("REPL failed")
		}
	},
}

const replHelp = `Enter statements to run them, or a function definition to keep it.
  :help      show this message
  :funcs     list defined functions
  :listing   print the bytecode of the last entry
  :quit      leave the session
Variables assigned without var persist between entries.
`

// session keeps the functions and globals of an interactive run. Each entry
// is compiled as the body of a fresh main alongside every function defined
// so far.
type session struct {
	out     io.Writer
	funcs   []*syntax.Function
	globals map[string]vm.Value
	last    *vm.Program
}

func newSession(out io.Writer) *session {
	return &session{out: out, globals: make(map[string]vm.Value)}
}

// define adds fn, replacing an earlier function of the same name.
func (s *session) define(fn *syntax.Function) {
	for i, f := range s.funcs {
		if f.Name == fn.Name {
			s.funcs[i] = fn
			return
		}
	}
	s.funcs = append(s.funcs, fn)
}

// complete reports whether the braces in src are balanced. Strings are
// skipped so that a brace inside a literal does not count.
func complete(src string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return depth <= 0 && quote == 0
}

// eval runs one entry. Function definitions are stored; anything else is
// run as statements.
func (s *session) eval(src string) error {
	if strings.HasPrefix(strings.TrimSpace(src), "function") {
		prog, err := syntax.Parse("<repl>", src)
		if err != nil {
			return err
		}
		for _, fn := range prog.Functions {
			s.define(fn)
			fmt.Fprintln(s.out, color.Gray.Sprintf("defined %s", fn.Name))
		}
		return nil
	}
	stmts, err := syntax.ParseStatements("<repl>", src)
	if err != nil {
		return err
	}
	if len(stmts) == 1 {
		if es, ok := stmts[0].(*syntax.ExprStmt); ok && showsValue(es.X) {
			stmts[0] = &syntax.Print{Args: []syntax.Expr{es.X}, LineFeed: true}
		}
	}
	for i, st := range stmts {
		// top-level declarations become globals so they survive the entry
		if v, ok := st.(*syntax.Variable); ok {
			stmts[i] = &syntax.ExprStmt{X: &syntax.SetVariable{Name: v.Name, Value: v.Value}}
		}
	}

	file := &syntax.Program{Name: "<repl>"}
	for _, fn := range s.funcs {
		if fn.Name != "main" {
			file.Functions = append(file.Functions, fn)
		}
	}
	file.Functions = append(file.Functions, &syntax.Function{Name: "main", Body: stmts})
	prog, err := vm.Compile(file)
	if err != nil {
		return err
	}
	s.last = prog
	_, err = interp.New(prog, interp.Options{Stdout: s.out, Globals: s.globals}).Run()
	return err
}

// showsValue reports whether a bare expression entry should echo its value.
func showsValue(x syntax.Expr) bool {
	switch x.(type) {
	case *syntax.Call, *syntax.SetVariable, *syntax.SetElement:
		return false
	}
	return true
}

// command handles a colon command and reports whether the session should
// end.
func (s *session) command(line string) bool {
	switch strings.TrimSpace(line) {
	case ":quit", ":q":
		return true
	case ":help":
		io.WriteString(s.out, replHelp)
	case ":funcs":
		for _, fn := range s.funcs {
			fmt.Fprintf(s.out, "%s(%s)\n", fn.Name, strings.Join(fn.Params, ", "))
		}
	case ":listing":
		if s.last == nil {
			fmt.Fprintln(s.out, "nothing compiled yet")
		} else {
			printListing(s.out, s.last)
		}
	default:
		fmt.Fprintf(s.out, "unknown command %s, try :help\n", line)
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".marrow_history")
}

func (s *session) loop() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	hist := historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintln(s.out, color.Cyan.Sprintf("marrow %s, :help for commands", version))
	var buf strings.Builder
	for {
		prompt := "> "
		if buf.Len() > 0 {
			prompt = ". "
		}
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			buf.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ":") {
			line.AppendHistory(input)
			if s.command(input) {
				break
			}
			continue
		}
		buf.WriteString(input)
		buf.WriteByte('\n')
		if !complete(buf.String()) {
			continue
		}
		entry := buf.String()
		buf.Reset()
		if strings.TrimSpace(entry) == "" {
			continue
		}
		line.AppendHistory(strings.TrimSpace(entry))
		if err := s.eval(entry); err != nil {
			fmt.Fprintln(s.out, color.Red.Sprint(err))
		}
	}

	if hist != "" {
		if f, err := os.Create(hist); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}
