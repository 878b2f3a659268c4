// Package unnest finds files by name inside arbitrarily deep chains of nested archives and extracts them with
// sequential, collision-free names.
//
// A typical use looks like this:
//
//	cfg, err := unnest.NewConfig(unnest.ConfigOptions{
//		TargetPattern:  `.*\.txt$`,
//		Prefix:         "txt_",
//		OutputDir:      "out",
//		MaxDepth:       unnest.DefaultMaxDepth,
//		UnlimitedDepth: true,
//	})
//	if err != nil {
//		return err
//	}
//
//	res := unnest.New(cfg).Extract(ctx, "nested_sample.zip")
//	for _, m := range res.Matches {
//		fmt.Println(m.Path) // out/txt_foo_sn1.txt
//	}
package unnest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/nguyengg/unnest/archive"
	"github.com/nguyengg/unnest/util"
	"golang.org/x/time/rate"
)

const defaultBufferSize = 32 * 1024

// Options customises Extractor.
type Options struct {
	// Logger is used to report progress and non-fatal errors.
	//
	// Defaults to log.Default. Setting it to nil discards all logs.
	Logger *log.Logger

	// Registry is used to recognise and open archives.
	//
	// Defaults to archive.DefaultRegistry.
	Registry *archive.Registry

	// SpoolDir is the parent directory of the temporary directory that nested archives are copied to before they are
	// opened. The temporary directory is always removed at the end of the run.
	//
	// Defaults to os.TempDir.
	SpoolDir string

	// Progress if given will receive a copy of every byte written to disk, which is useful for progress bars.
	Progress io.Writer

	// OnMatch if given is called right after a match has been written to disk.
	//
	// The hook is called from the goroutine that calls Extract.
	OnMatch func(FileMatch)

	// ProgressInterval is the minimum interval between periodic progress log messages.
	//
	// Defaults to 5 seconds.
	ProgressInterval time.Duration
}

// Extractor walks nested archives to extract files matching a Config.
//
// An Extractor holds no per-run state so Extract may be called multiple times, including from different goroutines.
type Extractor struct {
	cfg  *Config
	opts Options
}

// New creates a new Extractor with the given Config.
func New(cfg *Config, optFns ...func(*Options)) *Extractor {
	opts := Options{
		Logger:           log.Default(),
		Registry:         archive.DefaultRegistry(),
		ProgressInterval: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Registry == nil {
		opts.Registry = archive.DefaultRegistry()
	}

	return &Extractor{cfg: cfg, opts: opts}
}

// Config returns the Config of the Extractor.
func (x *Extractor) Config() *Config {
	return x.cfg
}

// Extract walks the archive at the given path and extracts all entries whose base name matches the target pattern.
//
// Extract never returns an error: if the root archive cannot be opened, Result.Success is false and Result.Err is an
// *archive.ArchiveOpenError; if ctx is cancelled, Result.Cancelled is true and Result.Err is a *CancelledError.
// Problems with nested archives or individual entries are reported in Result.Diagnostics.
func (x *Extractor) Extract(ctx context.Context, name string) (res Result) {
	start := time.Now()

	id := uuid.NewString()
	r := &run{
		Extractor: x,
		id:        id,
		logger:    log.New(x.opts.Logger.Writer(), fmt.Sprintf("%s[%s] ", x.opts.Logger.Prefix(), id[:8]), x.opts.Logger.Flags()),
		sometimes: rate.Sometimes{Interval: x.opts.ProgressInterval},
		buf:       make([]byte, defaultBufferSize),
	}

	defer func() {
		r.cleanup()
		res = r.result(time.Since(start))
		r.logger.Printf("%s in %s: %d matches (%s), %d entries examined, %d diagnostics",
			res.State, res.Duration.Round(time.Millisecond), len(res.Matches), humanize.Bytes(uint64(res.BytesWritten)),
			res.EntriesExamined, len(res.Diagnostics))
	}()

	r.walk(ctx, name)
	return
}

// frame is a container waiting to be opened.
type frame struct {
	// path is where the container is on disk, either the root archive or a spooled copy.
	path string
	// name is the name of the container for reporting purposes.
	name   string
	format archive.Format
	depth  int
	// chain is the list of containers leading to and including this one, starting with the root archive.
	chain []string
	// digests are the SHA-256 of this container and of all its spooled ancestors.
	digests [][]byte
	spooled bool
}

// run holds the state of a single Extract invocation. It must never outlive that invocation.
type run struct {
	*Extractor

	id     string
	logger *log.Logger
	root   string
	state  State

	// seq is the last sequential number handed out.
	seq         int
	matches     []FileMatch
	diagnostics []error
	err         error

	depthReached int
	examined     int
	written      int64
	// budget is the number of bytes written to disk so far, including spooled archives.
	budget    int64
	exhausted bool

	outputReady bool
	spoolDir    string

	sometimes rate.Sometimes
	buf       []byte
}

func (r *run) walk(ctx context.Context, name string) {
	r.root = filepath.Base(name)
	r.logger.Printf(`start extracting "%s" matching %q to "%s"`, name, r.cfg.pattern.String(), r.cfg.outputDir)

	r.state = StateOpening
	root, err := r.openRoot(ctx, name)
	if err != nil {
		r.fail(err)
		return
	}

	stack := []*frame{root}
	for len(stack) > 0 {
		if err = ctx.Err(); err != nil {
			r.cancel(err)
			return
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > 0 {
			r.state = StateRecursing
		}

		children, opened, err := r.scan(ctx, f)
		if f.spooled {
			_ = os.Remove(f.path)
		}

		switch {
		case ctx.Err() != nil:
			r.cancel(ctx.Err())
			return
		case err == nil:
		case f.depth == 0 && !opened:
			r.fail(err)
			return
		case errors.Is(err, ErrLimitExceeded):
			// archives found before the limit was hit are abandoned too.
			r.diagnose(err)
			stack = nil
			continue
		default:
			r.diagnose(err)
		}

		// pushed in reverse so that they're popped in the order they were found.
		for _, child := range slices.Backward(children) {
			stack = append(stack, child)
		}
	}

	r.state = StateDraining
	r.cleanup()
	r.state = StateDone
}

// openRoot detects the format of the root archive.
func (r *run) openRoot(ctx context.Context, name string) (_ *frame, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &archive.ArchiveOpenError{Name: name, Err: fmt.Errorf("panic: %v", v)}
		}
	}()

	src, err := os.Open(name)
	if err != nil {
		return nil, &archive.ArchiveOpenError{Name: name, Err: err}
	}
	defer src.Close()

	head := make([]byte, archive.HeadSize)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &archive.ArchiveOpenError{Name: name, Err: fmt.Errorf("read header error: %w", err)}
	}

	format, ok := r.opts.Registry.Detect(ctx, r.root, head[:n])
	if !ok {
		return nil, &archive.ArchiveOpenError{Name: name, Err: archive.ErrUnsupportedFormat}
	}

	return &frame{path: name, name: r.root, format: format, chain: []string{r.root}}, nil
}

// scan opens the container and processes all of its entries.
//
// opened is true if the container could be opened and at least started producing entries; for the root archive, an
// error with opened=false is fatal.
func (r *run) scan(ctx context.Context, f *frame) (children []*frame, opened bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &archive.ArchiveOpenError{Format: f.format.Name, Name: f.name, Err: fmt.Errorf("panic: %v", v)}
		}
	}()

	src, err := os.Open(f.path)
	if err != nil {
		return nil, false, &archive.ArchiveOpenError{Format: f.format.Name, Name: f.name, Err: err}
	}
	defer src.Close()

	files, err := f.format.Open(ctx, f.name, src)
	if err != nil {
		return nil, false, err
	}

	r.depthReached = max(r.depthReached, f.depth)
	r.state = StateScanning

	for file, err := range files {
		if err != nil {
			return children, opened, err
		}
		opened = true

		if err = ctx.Err(); err != nil {
			return children, opened, err
		}

		if file.FileInfo().IsDir() || !file.Mode().IsRegular() {
			continue
		}

		if limit := r.cfg.maxEntries; limit > 0 && r.examined >= limit {
			return children, opened, fmt.Errorf("stop after examining %d entries: %w", r.examined, ErrLimitExceeded)
		}
		r.examined++

		child, err := r.safeEntry(ctx, f, file)
		if err != nil {
			if ctx.Err() != nil {
				return children, opened, ctx.Err()
			}

			err = &EntryExtractionError{Name: file.Name(), Chain: f.chain, Err: err}
			if r.exhausted {
				return children, opened, err
			}

			r.diagnose(err)
		}
		if child != nil {
			children = append(children, child)
		}

		r.sometimes.Do(func() {
			r.logger.Printf("examined %d entries, extracted %d matches (%s) so far",
				r.examined, len(r.matches), humanize.Bytes(uint64(r.written)))
		})
	}

	return children, true, nil
}

// safeEntry calls entry, turning a panic from a decoder into an error for that entry alone.
func (r *run) safeEntry(ctx context.Context, f *frame, file archive.File) (child *frame, err error) {
	defer func() {
		if v := recover(); v != nil {
			child, err = nil, fmt.Errorf("panic: %v", v)
		}
	}()

	return r.entry(ctx, f, file)
}

// entry classifies a single entry then extracts it, spools it for recursion, or both.
func (r *run) entry(ctx context.Context, f *frame, file archive.File) (*frame, error) {
	base := util.BaseName(file.Name())
	if base == "" {
		return nil, nil
	}

	fi := file.FileInfo()
	if limit := r.cfg.maxEntrySize; limit > 0 && fi.Size() > limit {
		return nil, fmt.Errorf("entry size %s exceeds %s: %w",
			humanize.Bytes(uint64(fi.Size())), humanize.Bytes(uint64(limit)), ErrLimitExceeded)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry error: %w", err)
	}
	defer rc.Close()

	src := bufio.NewReaderSize(rc, archive.HeadSize)
	head, err := src.Peek(archive.HeadSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read entry error: %w", err)
	}

	matched := r.cfg.pattern.MatchString(base)
	format, nested := r.opts.Registry.Detect(ctx, base, head)

	extract, recurse := matched, nested
	if matched && nested {
		switch r.cfg.policy {
		case MatchOnly:
			recurse = false
		case RecurseOnly:
			extract = false
		}
	}

	if recurse && !r.cfg.allowsDepth(f.depth+1) {
		r.logger.Printf(`skip nested archive "%s" at depth %d (max depth %d)`, file.Name(), f.depth+1, r.cfg.maxDepth)
		recurse = false
	}

	if !extract && !recurse {
		return nil, nil
	}

	return r.tee(ctx, f, file, base, src, extract, recurse, format)
}

func (r *run) diagnose(err error) {
	r.logger.Printf("%v", err)
	r.diagnostics = append(r.diagnostics, err)
}

func (r *run) fail(err error) {
	r.logger.Printf("%v", err)
	r.err = err
	r.state = StateFatalError
}

func (r *run) cancel(err error) {
	r.err = &CancelledError{Err: err}
	r.state = StateCancelled
}

// cleanup removes the spool directory and anything left in it.
func (r *run) cleanup() {
	if r.spoolDir == "" {
		return
	}

	if err := os.RemoveAll(r.spoolDir); err != nil {
		r.logger.Printf(`remove spool directory "%s" error: %v`, r.spoolDir, err)
	}
	r.spoolDir = ""
}

func (r *run) result(d time.Duration) Result {
	return Result{
		RunID:           r.id,
		Success:         r.state == StateDone,
		Cancelled:       r.state == StateCancelled,
		State:           r.state,
		Matches:         slices.Clone(r.matches),
		Err:             r.err,
		Diagnostics:     slices.Clone(r.diagnostics),
		DepthReached:    r.depthReached,
		EntriesExamined: r.examined,
		BytesWritten:    r.written,
		Duration:        d,
	}
}
