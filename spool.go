package unnest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/unnest/archive"
	"github.com/nguyengg/unnest/util"
)

// tee reads the entry exactly once, writing to a temporary output file if extract is true and to a spool file if
// recurse is true.
//
// The temporary output file is renamed to its final sequential name only after the entire entry has been written, and
// the sequential counter is only advanced after the rename succeeds. As a result, numbers are never skipped and a
// partially written file never appears under a final name.
func (r *run) tee(ctx context.Context, f *frame, file archive.File, base string, src io.Reader, extract, recurse bool, format archive.Format) (_ *frame, err error) {
	var (
		writers    []io.Writer
		out, spool *os.File
		h          hash.Hash
	)

	// both flags are checked by deferred cleanups that must also run while a panic unwinds.
	var (
		tmp                string
		committed, spooled bool
	)

	if extract {
		if out, err = r.createOutputTemp(); err != nil {
			return nil, err
		}
		tmp = out.Name()
		defer func() {
			if out != nil {
				_ = out.Close()
			}
			if !committed {
				_ = os.Remove(tmp)
			}
		}()

		writers = append(writers, out)
	}

	if recurse {
		if spool, err = r.createSpool(base); err != nil {
			return nil, err
		}
		defer func(name string) {
			if spool != nil {
				_ = spool.Close()
			}
			if !spooled {
				_ = os.Remove(name)
			}
		}(spool.Name())

		h = sha256.New()
		writers = append(writers, spool, h)
	}

	dst := &budgetWriter{r: r, w: io.MultiWriter(writers...), copies: int64(len(writers))}
	if h != nil {
		dst.copies--
	}
	if r.opts.Progress != nil {
		dst.w = io.MultiWriter(dst.w, r.opts.Progress)
	}

	if limit := r.cfg.maxEntrySize; limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	n, err := util.CopyBufferWithContext(ctx, dst, src, r.buf)
	if err != nil {
		return nil, fmt.Errorf("copy entry error: %w", err)
	}
	if limit := r.cfg.maxEntrySize; limit > 0 && n > limit {
		return nil, fmt.Errorf("entry size exceeds %s: %w", humanize.Bytes(uint64(limit)), ErrLimitExceeded)
	}

	if extract {
		err, out = out.Close(), nil
		if err != nil {
			return nil, fmt.Errorf("close output file error: %w", err)
		}

		if err = r.commit(f, file, base, tmp, n); err != nil {
			return nil, err
		}
		committed = true
	}

	if !recurse {
		return nil, nil
	}

	name := spool.Name()
	err, spool = spool.Close(), nil
	if err != nil {
		return nil, fmt.Errorf("close spool file error: %w", err)
	}

	digest := h.Sum(nil)
	if slices.ContainsFunc(f.digests, func(d []byte) bool { return bytes.Equal(d, digest) }) {
		// the match, if any, has been committed already so this only stops the recursion.
		r.diagnose(&EntryExtractionError{Name: file.Name(), Chain: f.chain, Err: ErrRecursiveArchive})
		return nil, nil
	}

	spooled = true
	return &frame{
		path:    name,
		name:    file.Name(),
		format:  format,
		depth:   f.depth + 1,
		chain:   append(slices.Clone(f.chain), file.Name()),
		digests: append(slices.Clone(f.digests), digest),
		spooled: true,
	}, nil
}

// commit renames the temporary output file to its final name and records the match.
func (r *run) commit(f *frame, file archive.File, base, tmp string, size int64) error {
	seq := r.seq + 1
	name := filepath.Join(r.cfg.outputDir, OutputName(r.cfg.prefix, base, seq))

	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf(`rename to "%s" error: %w`, name, err)
	}
	r.seq = seq

	if modTime := file.FileInfo().ModTime(); !modTime.IsZero() {
		if err := os.Chtimes(name, modTime, modTime); err != nil {
			r.logger.Printf(`set modification time of "%s" error: %v`, name, err)
		}
	}

	m := FileMatch{
		Path:  name,
		Name:  file.Name(),
		Depth: f.depth,
		Chain: slices.Clone(f.chain),
		Seq:   seq,
		Size:  size,
	}
	r.matches = append(r.matches, m)
	r.written += size
	r.logger.Printf(`extracted "%s" to "%s" (%s)`, file.Name(), name, humanize.Bytes(uint64(size)))

	if r.opts.OnMatch != nil {
		r.opts.OnMatch(m)
	}

	return nil
}

// createOutputTemp creates a new temporary file in the output directory, creating the directory if necessary.
func (r *run) createOutputTemp() (*os.File, error) {
	if !r.outputReady {
		if err := os.MkdirAll(r.cfg.outputDir, 0755); err != nil {
			return nil, fmt.Errorf(`create output directory "%s" error: %w`, r.cfg.outputDir, err)
		}
		r.outputReady = true
	}

	out, err := os.CreateTemp(r.cfg.outputDir, ".unnest-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output file error: %w", err)
	}

	return out, nil
}

// createSpool creates a new file in the spool directory, creating the directory if necessary.
func (r *run) createSpool(base string) (*os.File, error) {
	if r.spoolDir == "" {
		dir, err := os.MkdirTemp(r.opts.SpoolDir, "unnest-"+r.id+"-")
		if err != nil {
			return nil, fmt.Errorf("create spool directory error: %w", err)
		}
		r.spoolDir = dir
	}

	_, ext := util.StemAndExt(base)
	spool, err := os.CreateTemp(r.spoolDir, "*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create spool file error: %w", err)
	}

	return spool, nil
}

// budgetWriter enforces MaxTotalSize. Once the budget is exhausted, the run stops.
//
// copies is the number of files on disk that every byte is written to.
type budgetWriter struct {
	r      *run
	w      io.Writer
	copies int64
}

func (b *budgetWriter) Write(p []byte) (int, error) {
	need := int64(len(p)) * b.copies
	if limit := b.r.cfg.maxTotalSize; limit > 0 && b.r.budget+need > limit {
		b.r.exhausted = true
		return 0, fmt.Errorf("total written bytes would exceed %s: %w", humanize.Bytes(uint64(limit)), ErrLimitExceeded)
	}

	n, err := b.w.Write(p)
	b.r.budget += int64(n) * b.copies
	return n, err
}
