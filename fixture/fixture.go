// Package fixture builds small nested archives for demos and tests.
package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyengg/unnest/archive"
	"github.com/nguyengg/unnest/codec"
)

// Contents of the two payload files inside NestedSample.
const (
	FooContent = "foo: Mr. Jock, TV quiz PhD, bags few lynx\n"
	BarContent = "bar: 2024-01-02T03:04:05Z INFO hello, world\n"
)

// ModTime is the modification time stamped on every entry so that fixtures are reproducible.
var ModTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Entry is a file to be added to an archive.
type Entry struct {
	Name string
	Data []byte
}

// Build creates an archive in memory with the given entries, in order.
func Build(w archive.Writer, entries ...Entry) ([]byte, error) {
	var buf bytes.Buffer

	add, closer, err := w.Create(&buf, "")
	if err != nil {
		return nil, fmt.Errorf("create archive error: %w", err)
	}

	for _, e := range entries {
		fw, err := add(e.Name, fileInfo{name: filepath.Base(e.Name), size: int64(len(e.Data))})
		if err != nil {
			_ = closer()
			return nil, fmt.Errorf(`add "%s" error: %w`, e.Name, err)
		}

		if _, err = fw.Write(e.Data); err == nil {
			err = fw.Close()
		}
		if err != nil {
			_ = closer()
			return nil, fmt.Errorf(`write "%s" error: %w`, e.Name, err)
		}
	}

	if err = closer(); err != nil {
		return nil, fmt.Errorf("close archive error: %w", err)
	}

	return buf.Bytes(), nil
}

// NestedSample writes "nested_sample.zip" to dir and returns its path.
//
// The archive chain is:
//
//	nested_sample.zip
//	└── middle.tar
//	    └── innermost.tar.gz
//	        ├── foo.txt
//	        └── bar.log
func NestedSample(dir string) (string, error) {
	innermost, err := Build(archive.Tar{Codec: codec.Gzip{}},
		Entry{Name: "foo.txt", Data: []byte(FooContent)},
		Entry{Name: "bar.log", Data: []byte(BarContent)})
	if err != nil {
		return "", err
	}

	middle, err := Build(archive.Tar{}, Entry{Name: "innermost.tar.gz", Data: innermost})
	if err != nil {
		return "", err
	}

	outer, err := Build(archive.Zip{}, Entry{Name: "middle.tar", Data: middle})
	if err != nil {
		return "", err
	}

	return write(dir, "nested_sample.zip", outer)
}

// DeepZipChain writes "level1.zip" to dir and returns its path.
//
// Each levelN.zip contains only level{N+1}.zip, except for the last level which contains "target.txt". DeepZipChain
// with levels=5 produces the same structure that depth limiting is usually tested against.
func DeepZipChain(dir string, levels int) (string, error) {
	if levels < 1 {
		return "", fmt.Errorf("levels (%d) must be at least 1", levels)
	}

	data, err := Build(archive.Zip{}, Entry{Name: "target.txt", Data: []byte("Deep file content")})
	if err != nil {
		return "", err
	}

	for level := levels - 1; level >= 1; level-- {
		data, err = Build(archive.Zip{}, Entry{Name: fmt.Sprintf("level%d.zip", level+1), Data: data})
		if err != nil {
			return "", err
		}
	}

	return write(dir, "level1.zip", data)
}

func write(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf(`create directory "%s" error: %w`, dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf(`create file "%s" error: %w`, path, err)
	}

	_, err = io.Copy(f, bytes.NewReader(data))
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf(`write file "%s" error: %w`, path, err)
	}

	return path, nil
}

type fileInfo struct {
	name string
	size int64
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() os.FileMode  { return 0644 }
func (fi fileInfo) ModTime() time.Time { return ModTime }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
