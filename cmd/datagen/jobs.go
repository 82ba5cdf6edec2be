package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/INLOpen/datafile/compressors"
	"github.com/INLOpen/datafile/config"
	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/newdata"
	"github.com/INLOpen/datafile/packager"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// Result reports one produced data file.
type Result struct {
	Path       string
	PayloadLen int64
	Digest     string // BLAKE2b-256 of the whole file, hex
}

// run builds every configured package concurrently. Each job owns its own
// writer and a root span that the writer's spans hang off. The first failure
// cancels the jobs that have not finished.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, tp trace.TracerProvider) ([]Result, error) {
	order, err := config.ParseByteOrder(cfg.Output.ByteOrder)
	if err != nil {
		return nil, err
	}
	lockTimeout := config.ParseDuration(cfg.Output.LockTimeout, newdata.DefaultLockTimeout, logger)

	results := make([]Result, len(cfg.Packages))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range cfg.Packages {
		g.Go(func() (err error) {
			jobLogger := logger.With("package", job.Name, "kind", job.Kind)
			tracer := tp.Tracer("datagen/" + job.Kind)
			ctx, span := tracer.Start(ctx, "datagen.package", trace.WithAttributes(
				attribute.String("datagen.package", job.Name),
				attribute.String("datagen.kind", job.Kind),
				attribute.String("datagen.source", job.Source),
			))
			defer func() {
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				span.End()
			}()

			opts := newdata.Options{
				Dir:           job.Dir,
				DefaultDir:    cfg.Output.DataDir,
				Type:          job.Type,
				Name:          job.Name,
				Comment:       job.Comment,
				ByteOrder:     order,
				Logger:        jobLogger,
				Tracer:        tracer,
				Lock:          cfg.Output.Lock,
				LockTimeout:   lockTimeout,
				SizeHint:      cfg.Output.SizeHintBytes,
				Sync:          cfg.Output.Sync,
				RemoveOnError: cfg.Output.RemoveOnError,
			}
			r, err := buildPackage(ctx, job, opts)
			if err != nil {
				return fmt.Errorf("package %s: %w", job.Name, err)
			}
			span.SetAttributes(
				attribute.String("datagen.path", r.Path),
				attribute.Int64("datagen.payload_len", r.PayloadLen),
				attribute.String("datagen.blake2b", r.Digest),
			)
			jobLogger.Info("Package built", "path", r.Path, "payload_len", r.PayloadLen, "blake2b", r.Digest)
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func buildPackage(ctx context.Context, job config.PackageConfig, opts newdata.Options) (Result, error) {
	var payload packager.Payload
	format := job.Format
	switch job.Kind {
	case config.KindStrings:
		c, err := compressors.ForName(job.Compression)
		if err != nil {
			return Result{}, err
		}
		pool := packager.NewStringPool(c)
		err = readLines(job.Source, func(line string) error {
			return pool.Add(line)
		})
		if err != nil {
			return Result{}, err
		}
		payload = pool
		if format == "" {
			format = packager.StringPoolFormat
		}
	case config.KindLookup:
		set := packager.NewLookupSet()
		err := readLines(job.Source, func(line string) error {
			v, err := strconv.ParseUint(line, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lookup key %q: %w", line, err)
			}
			set.Add(v)
			return nil
		})
		if err != nil {
			return Result{}, err
		}
		payload = set
		if format == "" {
			format = packager.LookupSetFormat
		}
	default:
		return Result{}, fmt.Errorf("unknown package kind %q: %w", job.Kind, core.ErrInvalidArgument)
	}

	formatVersion, err := config.ParseVersion(job.FormatVersion)
	if err != nil {
		return Result{}, err
	}
	dataVersion, err := config.ParseVersion(job.DataVersion)
	if err != nil {
		return Result{}, err
	}
	info, err := core.NewDataInfo(opts.ByteOrder, format, formatVersion, dataVersion)
	if err != nil {
		return Result{}, err
	}
	opts.Info = info

	path := newdata.ResolvePath(opts)
	if dir := opts.Dir; dir != "" || opts.DefaultDir != "" {
		if dir == "" {
			dir = opts.DefaultDir
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Result{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	n, err := packager.Package(ctx, opts, payload)
	if err != nil {
		return Result{}, err
	}
	digest, err := fileDigest(path)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, PayloadLen: n, Digest: digest}, nil
}

// readLines calls fn for each non-blank line of path with trailing
// whitespace trimmed. Lines starting with '#' are comments.
func readLines(path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for digest: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
