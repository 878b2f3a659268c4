package unnest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nguyengg/unnest/archive"
	"github.com/nguyengg/unnest/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, opts ConfigOptions, optFns ...func(*Options)) (*Extractor, string) {
	t.Helper()

	spoolDir := t.TempDir()
	cfg, err := NewConfig(opts)
	require.NoError(t, err)

	return New(cfg, append([]func(*Options){func(o *Options) {
		o.Logger = log.New(io.Discard, "", 0)
		o.SpoolDir = spoolDir
	}}, optFns...)...), spoolDir
}

func testOptions(t *testing.T, pattern, prefix string) ConfigOptions {
	t.Helper()

	opts := DefaultConfigOptions()
	opts.TargetPattern = pattern
	opts.Prefix = prefix
	opts.OutputDir = filepath.Join(t.TempDir(), "out")
	return opts
}

func matchNames(res Result) []string {
	names := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		names = append(names, filepath.Base(m.Path))
	}
	return names
}

func readFile(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func TestExtract_NestedSample(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	opts := testOptions(t, `.*\.txt$`, "txt_")
	x, spoolDir := newTestExtractor(t, opts)

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())
	assert.False(t, res.Cancelled)
	assert.Equal(t, StateDone, res.State)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Diagnostics)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.DepthReached)
	assert.Equal(t, 4, res.EntriesExamined)

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, filepath.Join(opts.OutputDir, "txt_foo_sn1.txt"), m.Path)
	assert.Equal(t, "foo.txt", m.Name)
	assert.Equal(t, 2, m.Depth)
	assert.Equal(t, 1, m.Seq)
	assert.Equal(t, []string{"nested_sample.zip", "middle.tar", "innermost.tar.gz"}, m.Chain)
	assert.Equal(t, int64(len(fixture.FooContent)), m.Size)
	assert.Equal(t, int64(len(fixture.FooContent)), res.BytesWritten)
	assert.Equal(t, fixture.FooContent, readFile(t, m.Path))

	fi, err := os.Stat(m.Path)
	require.NoError(t, err)
	assert.True(t, fixture.ModTime.Equal(fi.ModTime()), "got %s", fi.ModTime())

	// nothing but the match in the output directory, and nothing left in the spool directory.
	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	entries, err = os.ReadDir(spoolDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_NoMatch(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
	}{
		{name: "no pdf", pattern: `.*\.pdf$`},
		{name: "pattern is tested against base name only", pattern: `.*/foo\.txt$`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, tt.pattern, "")
			x, _ := newTestExtractor(t, opts)

			res := x.Extract(t.Context(), root)
			assert.True(t, res.Success, res.ErrorMessage())
			assert.Empty(t, res.Matches)
			assert.Empty(t, res.Diagnostics)
			assert.Equal(t, 2, res.DepthReached)

			_, err := os.Stat(opts.OutputDir)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestExtract_DepthLimit(t *testing.T) {
	root, err := fixture.DeepZipChain(t.TempDir(), 5)
	require.NoError(t, err)

	t.Run("limited", func(t *testing.T) {
		opts := testOptions(t, `^target\.txt$`, "")
		opts.MaxDepth = 3
		opts.UnlimitedDepth = false
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Empty(t, res.Matches)
		assert.Equal(t, 3, res.DepthReached)
	})

	t.Run("unlimited", func(t *testing.T) {
		opts := testOptions(t, `^target\.txt$`, "")
		opts.MaxDepth = 3
		opts.UnlimitedDepth = true
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "target_sn1.txt", filepath.Base(res.Matches[0].Path))
		assert.Equal(t, 4, res.Matches[0].Depth)
		assert.Equal(t, 4, res.DepthReached)
		assert.Equal(t, "Deep file content", readFile(t, res.Matches[0].Path))
	})

	t.Run("exact", func(t *testing.T) {
		opts := testOptions(t, `^target\.txt$`, "")
		opts.MaxDepth = 4
		opts.UnlimitedDepth = false
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Len(t, res.Matches, 1)
	})
}

func TestExtract_MultipleMatches(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	opts := testOptions(t, `.*\.(txt|log)$`, "")
	x, _ := newTestExtractor(t, opts)

	var hooked []string
	x.opts.OnMatch = func(m FileMatch) {
		hooked = append(hooked, filepath.Base(m.Path))
	}

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, []string{"foo_sn1.txt", "bar_sn2.log"}, matchNames(res))
	assert.Equal(t, matchNames(res), hooked)
	assert.Equal(t, fixture.FooContent, readFile(t, res.Matches[0].Path))
	assert.Equal(t, fixture.BarContent, readFile(t, res.Matches[1].Path))
	assert.Equal(t, int64(len(fixture.FooContent)+len(fixture.BarContent)), res.BytesWritten)
}

func TestExtract_PreOrder(t *testing.T) {
	// a.txt, then everything inside first.zip, then b.txt, then everything inside second.zip.
	first, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "first/c.txt", Data: []byte("c")})
	require.NoError(t, err)
	second, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "d.txt", Data: []byte("d")})
	require.NoError(t, err)
	data, err := fixture.Build(archive.Zip{},
		fixture.Entry{Name: "a.txt", Data: []byte("a")},
		fixture.Entry{Name: "first.zip", Data: first},
		fixture.Entry{Name: "b.txt", Data: []byte("b")},
		fixture.Entry{Name: "second.zip", Data: second})
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "root.zip")
	require.NoError(t, os.WriteFile(root, data, 0644))

	opts := testOptions(t, `\.txt$`, "")
	x, _ := newTestExtractor(t, opts)

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, []string{"a_sn1.txt", "b_sn2.txt", "c_sn3.txt", "d_sn4.txt"}, matchNames(res))
	assert.Equal(t, "c", readFile(t, res.Matches[2].Path))
}

func TestExtract_Deterministic(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	var results []Result
	for range 2 {
		opts := testOptions(t, `.*`, "x_")
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		require.True(t, res.Success, res.ErrorMessage())
		results = append(results, res)
	}

	assert.Equal(t, matchNames(results[0]), matchNames(results[1]))
	assert.Equal(t, []string{"x_middle_sn1.tar", "x_innermost.tar_sn2.gz", "x_foo_sn3.txt", "x_bar_sn4.log"}, matchNames(results[0]))
	for i := range results[0].Matches {
		assert.Equal(t, readFile(t, results[0].Matches[i].Path), readFile(t, results[1].Matches[i].Path))
	}
}

func TestExtract_CorruptNestedArchive(t *testing.T) {
	data, err := fixture.Build(archive.Zip{},
		fixture.Entry{Name: "broken.zip", Data: []byte("this is definitely not a zip file")},
		fixture.Entry{Name: "good.txt", Data: []byte("good")})
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "root.zip")
	require.NoError(t, os.WriteFile(root, data, 0644))

	opts := testOptions(t, `\.txt$`, "")
	x, _ := newTestExtractor(t, opts)

	res := x.Extract(t.Context(), root)
	assert.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, []string{"good_sn1.txt"}, matchNames(res))

	require.Len(t, res.Diagnostics, 1)
	var openErr *archive.ArchiveOpenError
	require.ErrorAs(t, res.Diagnostics[0], &openErr)
	assert.Equal(t, "zip", openErr.Format)
	assert.Equal(t, "broken.zip", openErr.Name)
}

func TestExtract_RootErrors(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("just some notes\n"), 0644))
	broken := filepath.Join(dir, "broken.tar")
	require.NoError(t, os.WriteFile(broken, bytes.Repeat([]byte("x"), 1000), 0644))

	tests := []struct {
		name   string
		root   string
		target error
	}{
		{name: "missing", root: filepath.Join(dir, "missing.zip"), target: os.ErrNotExist},
		{name: "not an archive", root: notes, target: archive.ErrUnsupportedFormat},
		{name: "corrupt", root: broken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, `.*`, "")
			x, _ := newTestExtractor(t, opts)

			res := x.Extract(t.Context(), tt.root)
			assert.False(t, res.Success)
			assert.False(t, res.Cancelled)
			assert.Equal(t, StateFatalError, res.State)
			assert.Empty(t, res.Matches)
			assert.NotEmpty(t, res.ErrorMessage())

			var openErr *archive.ArchiveOpenError
			assert.ErrorAs(t, res.Err, &openErr)
			if tt.target != nil {
				assert.ErrorIs(t, res.Err, tt.target)
			}
		})
	}
}

func TestExtract_Cancelled(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	t.Run("before start", func(t *testing.T) {
		opts := testOptions(t, `.*`, "")
		x, spoolDir := newTestExtractor(t, opts)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		res := x.Extract(ctx, root)
		assert.False(t, res.Success)
		assert.True(t, res.Cancelled)
		assert.Equal(t, StateCancelled, res.State)
		assert.Empty(t, res.Matches)

		var cancelErr *CancelledError
		assert.ErrorAs(t, res.Err, &cancelErr)
		assert.ErrorIs(t, res.Err, context.Canceled)

		entries, err := os.ReadDir(spoolDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("after first match", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		opts := testOptions(t, `.*\.(txt|log)$`, "")
		x, spoolDir := newTestExtractor(t, opts, func(o *Options) {
			o.OnMatch = func(FileMatch) { cancel() }
		})

		res := x.Extract(ctx, root)
		assert.False(t, res.Success)
		assert.True(t, res.Cancelled)
		assert.Equal(t, []string{"foo_sn1.txt"}, matchNames(res))
		assert.Empty(t, res.Diagnostics)

		entries, err := os.ReadDir(spoolDir)
		require.NoError(t, err)
		assert.Empty(t, entries)

		// no temporary files left behind either.
		entries, err = os.ReadDir(opts.OutputDir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestExtract_Policy(t *testing.T) {
	inner, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "a.txt", Data: []byte("a")})
	require.NoError(t, err)
	data, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "inner.zip", Data: inner})
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "root.zip")
	require.NoError(t, os.WriteFile(root, data, 0644))

	tests := []struct {
		policy NestedMatchPolicy
		want   []string
	}{
		{policy: MatchAndRecurse, want: []string{"inner_sn1.zip", "a_sn2.txt"}},
		{policy: MatchOnly, want: []string{"inner_sn1.zip"}},
		{policy: RecurseOnly, want: []string{"a_sn1.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			opts := testOptions(t, `^inner\.zip$|\.txt$`, "")
			opts.Policy = tt.policy
			x, _ := newTestExtractor(t, opts)

			res := x.Extract(t.Context(), root)
			require.True(t, res.Success, res.ErrorMessage())
			assert.Equal(t, tt.want, matchNames(res))
		})
	}
}

func TestExtract_Limits(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	t.Run("max entries", func(t *testing.T) {
		opts := testOptions(t, `.*\.(txt|log)$`, "")
		opts.MaxEntries = 3
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Equal(t, 3, res.EntriesExamined)
		assert.Equal(t, []string{"foo_sn1.txt"}, matchNames(res))
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0], ErrLimitExceeded)
	})

	t.Run("max entry size", func(t *testing.T) {
		opts := testOptions(t, `.*\.(txt|log)$`, "")
		opts.MaxEntrySize = 64
		x, _ := newTestExtractor(t, opts)

		// middle.tar is way bigger than 64 bytes so nothing past it is reachable.
		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Empty(t, res.Matches)
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0], ErrLimitExceeded)

		var entryErr *EntryExtractionError
		require.ErrorAs(t, res.Diagnostics[0], &entryErr)
		assert.Equal(t, "middle.tar", entryErr.Name)
		assert.Equal(t, []string{"nested_sample.zip"}, entryErr.Chain)
	})

	t.Run("max total size", func(t *testing.T) {
		opts := testOptions(t, `.*\.(txt|log)$`, "")
		opts.MaxTotalSize = 1024
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Empty(t, res.Matches)
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0], ErrLimitExceeded)
	})
}

// loopFile is an archive entry whose content is always the same loopArchiver archive.
type loopFile struct{}

var loopContent = []byte("LOOP: this archive contains itself")

func (loopFile) Name() string                 { return "self.loop" }
func (loopFile) FileInfo() os.FileInfo        { return loopFileInfo{} }
func (loopFile) Mode() os.FileMode            { return 0644 }
func (loopFile) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(loopContent)), nil }

type loopFileInfo struct{}

func (loopFileInfo) Name() string       { return "self.loop" }
func (loopFileInfo) Size() int64        { return int64(len(loopContent)) }
func (loopFileInfo) Mode() os.FileMode  { return 0644 }
func (loopFileInfo) ModTime() time.Time { return fixture.ModTime }
func (loopFileInfo) IsDir() bool        { return false }
func (loopFileInfo) Sys() any           { return nil }

type loopArchiver struct{}

func (loopArchiver) Open(context.Context, io.ReadSeeker) (iter.Seq2[archive.File, error], error) {
	return func(yield func(archive.File, error) bool) {
		yield(loopFile{}, nil)
	}, nil
}

func TestExtract_RecursiveArchive(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root.loop")
	require.NoError(t, os.WriteFile(root, []byte("LOOP: the root is different"), 0644))

	registry := archive.NewRegistry(archive.Format{Name: "loop", Extensions: []string{".loop"}, Archiver: loopArchiver{}})

	opts := testOptions(t, `^self\.loop$`, "")
	x, _ := newTestExtractor(t, opts, func(o *Options) {
		o.Registry = registry
	})

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())

	// root > self.loop is extracted and opened, root > self.loop > self.loop is extracted but not opened again.
	assert.Equal(t, []string{"self_sn1.loop", "self_sn2.loop"}, matchNames(res))
	assert.Equal(t, 1, res.DepthReached)
	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], ErrRecursiveArchive))
}

func TestExtract_LimitStopsPendingArchives(t *testing.T) {
	inner, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "c.txt", Data: []byte("c")})
	require.NoError(t, err)
	inner2, err := fixture.Build(archive.Zip{}, fixture.Entry{Name: "d.txt", Data: []byte("d")})
	require.NoError(t, err)

	t.Run("max total size", func(t *testing.T) {
		// inner.zip is spooled first, then big.txt blows the budget.
		data, err := fixture.Build(archive.Zip{},
			fixture.Entry{Name: "inner.zip", Data: inner},
			fixture.Entry{Name: "big.txt", Data: bytes.Repeat([]byte("x"), 5000)})
		require.NoError(t, err)

		root := filepath.Join(t.TempDir(), "root.zip")
		require.NoError(t, os.WriteFile(root, data, 0644))

		opts := testOptions(t, `\.txt$`, "")
		opts.MaxTotalSize = int64(len(inner) + 100)
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Empty(t, res.Matches)
		assert.Equal(t, 0, res.DepthReached)
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0], ErrLimitExceeded)
	})

	t.Run("max entries", func(t *testing.T) {
		data, err := fixture.Build(archive.Zip{},
			fixture.Entry{Name: "inner.zip", Data: inner},
			fixture.Entry{Name: "inner2.zip", Data: inner2},
			fixture.Entry{Name: "x.txt", Data: []byte("x")})
		require.NoError(t, err)

		root := filepath.Join(t.TempDir(), "root.zip")
		require.NoError(t, os.WriteFile(root, data, 0644))

		opts := testOptions(t, `\.txt$`, "")
		opts.MaxEntries = 2
		x, _ := newTestExtractor(t, opts)

		res := x.Extract(t.Context(), root)
		assert.True(t, res.Success, res.ErrorMessage())
		assert.Empty(t, res.Matches)
		assert.Equal(t, 2, res.EntriesExamined)
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0], ErrLimitExceeded)
	})
}

// panicReader returns one block of data then panics, like a decoder with a bug.
type panicReader struct {
	read bool
}

func (r *panicReader) Read(p []byte) (int, error) {
	if r.read {
		panic("decoder bug")
	}

	r.read = true
	n := min(len(p), archive.HeadSize)
	copy(p, bytes.Repeat([]byte("a"), n))
	return n, nil
}

type memFile struct {
	name string
	open func() io.ReadCloser
}

func (f memFile) Name() string                 { return f.name }
func (f memFile) FileInfo() os.FileInfo        { return memFileInfo(f) }
func (f memFile) Mode() os.FileMode            { return 0644 }
func (f memFile) Open() (io.ReadCloser, error) { return f.open(), nil }

type memFileInfo memFile

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return 0 }
func (fi memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return fixture.ModTime }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() any           { return nil }

type panicArchiver struct{}

func (panicArchiver) Open(context.Context, io.ReadSeeker) (iter.Seq2[archive.File, error], error) {
	return func(yield func(archive.File, error) bool) {
		files := []archive.File{
			memFile{name: "bad.txt", open: func() io.ReadCloser { return io.NopCloser(&panicReader{}) }},
			memFile{name: "good.txt", open: func() io.ReadCloser { return io.NopCloser(bytes.NewReader([]byte("good"))) }},
		}
		for _, f := range files {
			if !yield(f, nil) {
				return
			}
		}
	}, nil
}

func TestExtract_PanicInEntry(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root.pan")
	require.NoError(t, os.WriteFile(root, []byte("PAN"), 0644))

	registry := archive.NewRegistry(archive.Format{Name: "pan", Extensions: []string{".pan"}, Archiver: panicArchiver{}})

	opts := testOptions(t, `\.txt$`, "")
	x, _ := newTestExtractor(t, opts, func(o *Options) {
		o.Registry = registry
	})

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, 2, res.EntriesExamined)
	assert.Equal(t, []string{"good_sn1.txt"}, matchNames(res))

	require.Len(t, res.Diagnostics, 1)
	var entryErr *EntryExtractionError
	require.ErrorAs(t, res.Diagnostics[0], &entryErr)
	assert.Equal(t, "bad.txt", entryErr.Name)
	assert.ErrorContains(t, entryErr, "decoder bug")

	// the half-written temporary file of bad.txt is gone.
	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good_sn1.txt", entries[0].Name())
}

func TestExtract_PanicInDetection(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	require.NoError(t, os.WriteFile(root, []byte("PAN"), 0644))

	registry := archive.NewRegistry(archive.Format{
		Name:      "pan",
		Signature: func([]byte) bool { panic("signature bug") },
		Archiver:  panicArchiver{},
	})

	opts := testOptions(t, `.*`, "")
	x, _ := newTestExtractor(t, opts, func(o *Options) {
		o.Registry = registry
	})

	res := x.Extract(t.Context(), root)
	assert.False(t, res.Success)
	assert.Equal(t, StateFatalError, res.State)

	var openErr *archive.ArchiveOpenError
	require.ErrorAs(t, res.Err, &openErr)
	assert.ErrorContains(t, openErr, "signature bug")
}

func TestNew_NilOptions(t *testing.T) {
	root, err := fixture.NestedSample(t.TempDir())
	require.NoError(t, err)

	opts := testOptions(t, `.*\.txt$`, "")
	cfg, err := NewConfig(opts)
	require.NoError(t, err)

	x := New(cfg, func(o *Options) {
		o.Logger = nil
		o.Registry = nil
		o.SpoolDir = t.TempDir()
	})

	res := x.Extract(t.Context(), root)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, []string{"foo_sn1.txt"}, matchNames(res))
}
