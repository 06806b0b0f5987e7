package suite

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-lang/marrow/cas"
	"github.com/marrow-lang/marrow/project"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

const (
	sumSrc  = "function main() { printLine 1 + 2; }"
	loopSrc = "function main() { for i = 0, i < 3, i = i + 1 { print i; } printLine; }"
)

func TestDiscover(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"sum.mar":      sumSrc,
		"sum.out":      "3\n",
		"nested/b.mar": loopSrc,
		"notes.txt":    "ignored",
	})
	cases, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "nested/b", cases[0].Name)
	assert.False(t, cases[0].HasExpected)
	assert.Equal(t, "sum", cases[1].Name)
	assert.True(t, cases[1].HasExpected)
	assert.Equal(t, "3\n", cases[1].Expected)
	assert.Equal(t, filepath.Join(dir, "sum.out"), cases[1].ExpectedPath())
}

func TestRunAllBackends(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"sum.mar":  sumSrc,
		"sum.out":  "3\n",
		"loop.mar": loopSrc,
		"loop.out": "012\n",
		"new.mar":  sumSrc,
	})
	cases, err := Discover(dir)
	require.NoError(t, err)

	store := cas.NewMemoryCAS()
	var progress bytes.Buffer
	r := &Runner{Workers: 4, Store: store, Reporter: &ColorReporter{Writer: &progress}, KeepGoing: true}
	s, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	assert.True(t, s.OK())
	assert.Equal(t, 4, s.Counts[Passed])
	assert.Equal(t, 2, s.Counts[Unchecked])
	assert.Empty(t, s.Disagreements)
	assert.Equal(t, []string{project.BackendVM, project.BackendTree}, s.Backends)
	require.Len(t, s.Results, 6)
	assert.Equal(t, "loop", s.Results[0].Case.Name)
	assert.Equal(t, project.BackendVM, s.Results[0].Backend)
	assert.Equal(t, project.BackendTree, s.Results[1].Backend)
	assert.Contains(t, progress.String(), "[6/6]")

	// sum and new share a source; unless both missed at once, one of them
	// is served from the other's entry
	assert.GreaterOrEqual(t, store.Len(), 2)
	assert.LessOrEqual(t, store.Len(), 3)

	s, err = r.Run(context.Background(), cases)
	require.NoError(t, err)
	assert.True(t, s.Results[0].Cached)
	assert.False(t, s.Results[1].Cached)
}

func TestRunReportsFailures(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.mar": sumSrc,
		"a.out": "4\n",
		"b.mar": "function helper() {}",
		"c.mar": loopSrc,
		"c.out": "012\n",
	})
	cases, err := Discover(dir)
	require.NoError(t, err)

	s, err := (&Runner{Workers: 2, KeepGoing: true}).Run(context.Background(), cases)
	require.NoError(t, err)
	assert.False(t, s.OK())
	assert.Equal(t, 2, s.Counts[Failed])
	assert.Equal(t, 2, s.Counts[Errored])
	assert.Equal(t, 2, s.Counts[Passed])
	require.Len(t, s.Failures(), 4)

	var out bytes.Buffer
	WriteSummary(&out, s)
	assert.Contains(t, out.String(), "First difference")
	assert.Contains(t, out.String(), "2 passed")
	assert.Contains(t, out.String(), "main")
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.mar": sumSrc,
		"a.out": "wrong\n",
		"b.mar": sumSrc,
		"b.out": "3\n",
	})
	cases, err := Discover(dir)
	require.NoError(t, err)

	s, err := (&Runner{Workers: 1}).Run(context.Background(), cases)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Counts[Failed])
	assert.Equal(t, 3, s.Counts[Skipped])
	assert.False(t, s.OK())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Runner{}).Run(ctx, []Case{{Name: "x", File: "x.mar"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDisagreement(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.mar": sumSrc})
	cases, err := Discover(dir)
	require.NoError(t, err)
	s, err := (&Runner{Backends: []string{project.BackendVM, "jit"}, KeepGoing: true}).Run(context.Background(), cases)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.Disagreements)
	assert.Equal(t, Errored, s.Results[1].Status)
}

func TestUpdateExpected(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.mar": sumSrc,
		"a.out": "old\n",
		"b.mar": loopSrc,
	})
	cases, err := Discover(dir)
	require.NoError(t, err)
	s, err := (&Runner{Backends: []string{project.BackendVM}, KeepGoing: true}).Run(context.Background(), cases)
	require.NoError(t, err)

	written, err := s.UpdateExpected()
	require.NoError(t, err)
	assert.Len(t, written, 2)
	data, err := os.ReadFile(filepath.Join(dir, "a.out"))
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(data))

	cases, err = Discover(dir)
	require.NoError(t, err)
	s, err = (&Runner{}).Run(context.Background(), cases)
	require.NoError(t, err)
	assert.True(t, s.OK())
	assert.Equal(t, 4, s.Counts[Passed])
}

func TestFirstDifference(t *testing.T) {
	line, _, _ := FirstDifference("a\nb\n", "a\nb\n")
	assert.Equal(t, 0, line)
	line, got, want := FirstDifference("a\nx\n", "a\nb\n")
	assert.Equal(t, 2, line)
	assert.Equal(t, "x", got)
	assert.Equal(t, "b", want)
	line, got, want = FirstDifference("a\n", "a\nb\n")
	assert.Equal(t, 2, line)
	assert.Equal(t, "", got)
	assert.Equal(t, "b", want)
}

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	iw := &indentWriter{w: &buf, indent: "> ", atLineStart: true}
	iw.Write([]byte("one\ntw"))
	iw.Write([]byte("o\nthree"))
	assert.Equal(t, "> one\n> two\n> three", buf.String())
}
