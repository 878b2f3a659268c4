package util

import (
	"context"
	"fmt"
	"io"
)

// CopyBufferWithContext is a custom implementation of io.CopyBuffer that is cancellable via context.
//
// Similar to io.CopyBuffer, if buf is nil, a new buffer of size 32*1024 is created.
// Unlike io.CopyBuffer, it does not matter if src implements [io.WriterTo] or dst implements [io.ReaderFrom] because
// those interfaces do not support context.
//
// The context is checked for done status after every write. As a result, having too small a buffer may introduce too
// much overhead, while having a very large buffer may cause context cancellation to have a delayed effect.
func CopyBufferWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (written int64, err error) {
	if buf == nil {
		buf = make([]byte, 32*1024)
	}

	var nr, nw int
	for {
		nr, err = src.Read(buf)

		if nr > 0 {
			switch nw, err = dst.Write(buf[0:nr]); {
			case err != nil:
				return written, err
			case nr < nw:
				return written, io.ErrShortWrite
			case nr != nw:
				return written, fmt.Errorf("invalid write: expected to write %d bytes, wrote %d bytes instead", nr, nw)
			}

			written += int64(nw)

			select {
			case <-ctx.Done():
				return written, ctx.Err()
			default:
			}
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// WriteNoopCloser implements a no-op io.Closer for an io.Writer.
type WriteNoopCloser struct {
	io.Writer
}

func (w *WriteNoopCloser) Close() error {
	return nil
}

// ChainCloser makes sure all the close functions are called at least once and will return the first error.
//
// The order of the close functions matters: the first one should close the innermost writer.
func ChainCloser(fn1 func() error, fn2 func() error, fns ...func() error) func() error {
	return func() error {
		err, err2 := fn1(), fn2()

		if err2 != nil && err == nil {
			err = err2
		}

		for _, fn := range fns {
			if err2 = fn(); err2 != nil && err == nil {
				err = err2
			}
		}

		return err
	}
}
