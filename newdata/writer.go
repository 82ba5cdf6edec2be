// Package newdata writes self-describing binary data files: a 16-byte
// aligned header (size field, format descriptor, optional comment) followed
// by a payload streamed through append primitives.
package newdata

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/sys"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultLockTimeout bounds how long Create waits for the output lock.
const DefaultLockTimeout = 5 * time.Second

// Options describes the data file to create.
type Options struct {
	// Dir is the output directory. When empty, DefaultDir is used; when both
	// are empty the name is resolved against the working directory.
	Dir string
	// Type is the file type suffix appended as ".<Type>" when non-empty.
	Type    string
	Name    string
	Info    core.Descriptor
	Comment string

	// DefaultDir is the configured fallback for Dir.
	DefaultDir string
	// ByteOrder for the header size field and the multi-byte primitives.
	// Nil means the producing platform's native order. A *core.DataInfo in
	// Info must record the same order.
	ByteOrder binary.ByteOrder

	Logger *slog.Logger
	Tracer trace.Tracer
	// Create opens the sink. Nil means sys.Create.
	Create sys.CreateHandler

	// Lock takes an exclusive OS lock on "<path>.lock" while writing.
	Lock        bool
	LockTimeout time.Duration
	// SizeHint preallocates space for the expected file size.
	SizeHint int64
	// Sync flushes the sink to stable storage before Finish measures it.
	Sync bool
	// RemoveOnError deletes the output when Create or Finish fails after the
	// sink was opened. Off by default: a failed file is left on disk.
	RemoveOnError bool
}

// Writer is the single owner of an open data file. It is not safe for
// concurrent use; producers that share a file must serialize through one
// goroutine.
type Writer struct {
	path   string
	file   sys.FileHandle
	header core.FileHeader
	order  binary.ByteOrder

	written  int64 // bytes appended to the sink, header included
	err      error // first write failure, reported by Finish
	finished bool

	release       func() error
	sync          bool
	removeOnError bool

	logger *slog.Logger
	tracer trace.Tracer
}

// ResolvePath returns the output path for opts without touching the
// filesystem.
func ResolvePath(opts Options) string {
	dir := opts.Dir
	if dir == "" {
		dir = opts.DefaultDir
	}
	name := core.FormatFileName(opts.Name, opts.Type)
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Create opens the output sink and writes the header. Argument errors are
// reported before any file is created; a sink that cannot be opened yields a
// file access error and no header write.
func Create(ctx context.Context, opts Options) (w *Writer, err error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("newdata")
	}
	ctx, span := tracer.Start(ctx, "newdata.Create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, core.InvalidArgument("create", "", "name is empty")
	}
	if opts.Info == nil {
		return nil, core.InvalidArgument("create", "", "descriptor is nil")
	}

	path := ResolvePath(opts)
	header, err := core.NewFileHeader(opts.Info, opts.Comment)
	if err != nil {
		return nil, &core.Error{Op: "create", Path: path, Kind: core.ErrInvalidArgument, Err: err}
	}

	order := opts.ByteOrder
	if order == nil {
		order = binary.NativeEndian
	}
	if info, ok := opts.Info.(*core.DataInfo); ok {
		if err := info.CheckByteOrder(order); err != nil {
			return nil, &core.Error{Op: "create", Path: path, Kind: core.ErrInvalidArgument, Err: err}
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "newdata", "path", path)
	span.SetAttributes(
		attribute.String("datafile.path", path),
		attribute.Int("datafile.header_size", header.Size()),
		attribute.Int("datafile.descriptor_size", len(header.Descriptor)),
	)

	release := func() error { return nil }
	if opts.Lock {
		timeout := opts.LockTimeout
		if timeout <= 0 {
			timeout = DefaultLockTimeout
		}
		rel, lerr := sys.AcquireOSFileLock(path+".lock", timeout)
		if lerr != nil {
			return nil, core.FileAccess("lock", path, lerr)
		}
		release = rel
	}

	create := opts.Create
	if create == nil {
		create = sys.Create
	}
	file, err := create(path)
	if err != nil {
		_ = release()
		logger.Error("Failed to open data file", "error", err)
		return nil, core.FileAccess("create", path, err)
	}

	if opts.SizeHint > 0 {
		if perr := sys.Preallocate(file, opts.SizeHint); perr != nil {
			if errors.Is(perr, sys.ErrPreallocNotSupported) {
				logger.Debug("Preallocation not supported", "size_hint", opts.SizeHint)
			} else {
				logger.Warn("Preallocation failed", "size_hint", opts.SizeHint, "error", perr)
			}
		}
	}

	n, werr := header.Encode(file, order)
	if werr == nil && n != int64(header.Size()) {
		werr = fmt.Errorf("short header write: %d of %d bytes", n, header.Size())
	}
	if werr != nil {
		_ = file.Close()
		_ = release()
		if opts.RemoveOnError {
			removeFailed(logger, path)
		}
		logger.Error("Failed to write data file header", "error", werr)
		return nil, core.FileAccess("create", path, werr)
	}

	logger.Debug("Data file header written",
		"header_size", header.Size(),
		"descriptor_size", len(header.Descriptor),
		"comment_length", core.CommentLength(header.Comment),
		"padding", header.PaddingLen())

	return &Writer{
		path:          path,
		file:          file,
		header:        header,
		order:         order,
		written:       n,
		release:       release,
		sync:          opts.Sync,
		removeOnError: opts.RemoveOnError,
		logger:        logger,
		tracer:        tracer,
	}, nil
}

// Path returns the resolved output path.
func (w *Writer) Path() string { return w.path }

// HeaderSize returns the aligned header length; the payload starts here.
func (w *Writer) HeaderSize() int { return w.header.Size() }

// Magic returns the two identification bytes of the format family.
func (w *Writer) Magic() (byte, byte) { return w.header.Magic1, w.header.Magic2 }

// ByteOrder returns the order used for multi-byte primitives.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.order }

// PayloadLen returns the payload bytes appended so far.
func (w *Writer) PayloadLen() int64 { return w.written - int64(w.header.Size()) }

// Err returns the first write failure, if any. Once set, later primitives
// are skipped and Finish reports it.
func (w *Writer) Err() error { return w.err }

// Finish closes the sink and returns the payload length, i.e. the file
// length minus the header. The writer is spent afterwards whatever the
// outcome; any further use panics with core.ErrWriterFinished.
func (w *Writer) Finish(ctx context.Context) (length int64, err error) {
	w.mustBeOpen()
	w.finished = true

	_, span := w.tracer.Start(ctx, "newdata.Finish")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("datafile.path", w.path))

	file := w.file
	w.file = nil
	defer func() {
		if rerr := w.release(); rerr != nil {
			w.logger.Warn("Failed to release data file lock", "error", rerr)
		}
		if err != nil && w.removeOnError {
			removeFailed(w.logger, w.path)
		}
	}()

	if w.err != nil {
		_ = file.Close()
		w.logger.Error("Data file has a write error", "error", w.err)
		return 0, w.err
	}

	if w.sync {
		if serr := file.Sync(); serr != nil {
			_ = file.Close()
			return 0, core.FileAccess("finish", w.path, serr)
		}
	}
	fi, serr := file.Stat()
	if serr != nil {
		_ = file.Close()
		return 0, core.FileAccess("finish", w.path, serr)
	}
	if cerr := file.Close(); cerr != nil {
		return 0, core.FileAccess("finish", w.path, cerr)
	}

	if fi.Size() != w.written {
		w.logger.Warn("Data file size differs from bytes written", "size", fi.Size(), "written", w.written)
	}
	length = fi.Size() - int64(w.header.Size())
	span.SetAttributes(attribute.Int64("datafile.payload_len", length))
	w.logger.Info("Data file finished", "header_size", w.header.Size(), "payload_len", length)
	return length, nil
}

func (w *Writer) mustBeOpen() {
	if w == nil || w.finished {
		panic(core.ErrWriterFinished)
	}
}

func removeFailed(logger *slog.Logger, path string) {
	if err := sys.Remove(path); err != nil {
		logger.Warn("Failed to remove incomplete data file", "error", err)
		return
	}
	logger.Info("Removed incomplete data file")
}
