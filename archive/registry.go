package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/mholt/archives"
	"github.com/nguyengg/unnest/codec"
)

// HeadSize is the number of leading bytes that should be given to Registry.Detect for signature matching.
const HeadSize = 4096

// Format describes one archive container type that a Registry can recognise.
type Format struct {
	// Name is a short human-readable name such as "zip" or "tar.gz".
	Name string
	// Extensions are the lower-case name suffixes (including the leading dot) that identify the format.
	Extensions []string
	// Signature reports whether the leading bytes of a stream belong to this format. May be nil.
	Signature func(head []byte) bool
	// Archiver reads the entries.
	Archiver Archiver
}

// MatchName reports whether the given base name ends with one of the format's extensions.
func (f Format) MatchName(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range f.Extensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return true
		}
	}

	return false
}

// Match reports whether either the base name or the leading bytes belong to this format.
func (f Format) Match(name string, head []byte) bool {
	return f.MatchName(name) || (f.Signature != nil && len(head) != 0 && f.Signature(head))
}

// Open rewinds src and returns the archive's entries.
//
// Errors from opening the archive, and errors yielded by the iterator, are wrapped in *ArchiveOpenError. The name is
// only used for error reporting.
func (f Format) Open(ctx context.Context, name string, src io.ReadSeeker) (iter.Seq2[File, error], error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, &ArchiveOpenError{Format: f.Name, Name: name, Err: fmt.Errorf("seek start error: %w", err)}
	}

	files, err := f.Archiver.Open(ctx, src)
	if err != nil {
		return nil, &ArchiveOpenError{Format: f.Name, Name: name, Err: err}
	}

	return func(yield func(File, error) bool) {
		for file, err := range files {
			if err != nil {
				err = &ArchiveOpenError{Format: f.Name, Name: name, Err: err}
			}

			if !yield(file, err) || err != nil {
				return
			}
		}
	}, nil
}

// Registry is an ordered collection of formats.
//
// Formats are consulted in registration order, first by extension, then by signature. Register must not be called
// while the Registry is in use by other goroutines.
type Registry struct {
	formats []Format

	// Fallback if true will ask github.com/mholt/archives to identify streams that no registered format recognises.
	Fallback bool
}

// NewRegistry creates a Registry with the given formats and no fallback.
func NewRegistry(formats ...Format) *Registry {
	return &Registry{formats: append([]Format(nil), formats...)}
}

// DefaultRegistry returns a new Registry with all built-in formats and the github.com/mholt/archives fallback.
func DefaultRegistry() *Registry {
	return &Registry{
		formats: []Format{
			{
				Name:       "zip",
				Extensions: []string{".zip", ".jar", ".war", ".apk", ".nupkg", ".whl"},
				Signature:  isZip,
				Archiver:   Zip{},
			},
			{
				Name:       "tar",
				Extensions: []string{".tar"},
				Signature:  isTar,
				Archiver:   Tar{},
			},
			{
				Name:       "tar.gz",
				Extensions: []string{".tar.gz", ".tgz"},
				Signature:  compressedTar(codec.Gzip{}, []byte{0x1f, 0x8b}),
				Archiver:   Tar{Codec: codec.Gzip{}},
			},
			{
				Name:       "tar.xz",
				Extensions: []string{".tar.xz", ".txz"},
				Signature:  compressedTar(codec.Xz{}, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}),
				Archiver:   Tar{Codec: codec.Xz{}},
			},
			{
				Name:       "tar.zst",
				Extensions: []string{".tar.zst", ".tzst"},
				Signature:  compressedTar(codec.Zstd{}, []byte{0x28, 0xb5, 0x2f, 0xfd}),
				Archiver:   Tar{Codec: codec.Zstd{}},
			},
			{
				Name:       "7z",
				Extensions: []string{".7z"},
				Signature:  hasPrefix([]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}),
				Archiver:   SevenZip{},
			},
		},
		Fallback: true,
	}
}

// Register appends the given format to the registry.
func (r *Registry) Register(f Format) {
	r.formats = append(r.formats, f)
}

// Formats returns a copy of the registered formats in order.
func (r *Registry) Formats() []Format {
	return append([]Format(nil), r.formats...)
}

// Detect determines the format of a container from its base name and leading bytes.
//
// Either argument may be empty. Extension matches win over signature matches so that a corrupted file named
// "foo.zip" is still treated as a (broken) ZIP archive rather than silently ignored.
func (r *Registry) Detect(ctx context.Context, name string, head []byte) (Format, bool) {
	for _, f := range r.formats {
		if f.MatchName(name) {
			return f, true
		}
	}

	if len(head) == 0 {
		return Format{}, false
	}

	for _, f := range r.formats {
		if f.Match("", head) {
			return f, true
		}
	}

	if r.Fallback {
		return identify(ctx, name, head)
	}

	return Format{}, false
}

// LooksLikeArchive reports whether Detect would recognise the given base name and leading bytes as an archive.
func (r *Registry) LooksLikeArchive(ctx context.Context, name string, head []byte) bool {
	_, ok := r.Detect(ctx, name, head)
	return ok
}

// identify asks github.com/mholt/archives to recognise the stream.
func identify(ctx context.Context, name string, head []byte) (Format, bool) {
	af, _, err := archives.Identify(ctx, name, bytes.NewReader(head))
	if err != nil {
		return Format{}, false
	}

	ex, ok := af.(archives.Extraction)
	if !ok {
		return Format{}, false
	}

	// a bare compression format (e.g. "notes.txt.bz2") is identified as a CompressedArchive without extraction.
	if ca, ok := af.(archives.CompressedArchive); ok && ca.Extraction == nil {
		return Format{}, false
	}

	return Format{
		Name:     strings.TrimPrefix(af.Extension(), "."),
		Archiver: Generic{Extraction: ex},
	}, true
}
