package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/INLOpen/datafile/config"
	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/internal/testutil"
	"github.com/INLOpen/datafile/sys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/blake2b"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCreateLogger(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		logger, closer, err := createLogger(config.LoggingConfig{Level: "warn", Output: "none", Format: "json"})
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "datagen.log")
		logger, closer, err := createLogger(config.LoggingConfig{Level: "info", Output: "file", File: logFile, Format: "auto"})
		require.NoError(t, err)
		require.NotNil(t, closer)
		logger.Info("hello")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`, "files get JSON logs")
	})

	for name, cfg := range map[string]config.LoggingConfig{
		"bad level":    {Level: "loud", Output: "none"},
		"bad output":   {Level: "info", Output: "printer"},
		"file no path": {Level: "info", Output: "file"},
		"bad format":   {Level: "info", Output: "none", Format: "xml"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := createLogger(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewTracerProvider(t *testing.T) {
	tp, shutdown, err := newTracerProvider(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))

	_, _, err = newTracerProvider(context.Background(), config.TracingConfig{Enabled: true, Protocol: "udp"})
	assert.ErrorContains(t, err, "unsupported tracing protocol")
}

func TestRun_BuildsAllPackages(t *testing.T) {
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	cfg.Output.DataDir = outDir
	cfg.Output.ByteOrder = "little"
	cfg.Output.Lock = true
	cfg.Packages = []config.PackageConfig{
		{
			Kind:          config.KindStrings,
			Name:          "locales",
			Type:          "spp",
			Source:        writeSource(t, srcDir, "locales.txt", "# locales\nfr\nde\n\nen\r\nde\n"),
			Comment:       "locale names",
			Compression:   "lz4",
			FormatVersion: "1.0",
			DataVersion:   "45",
		},
		{
			Kind:   config.KindLookup,
			Name:   "ids",
			Type:   "lks",
			Dir:    filepath.Join(outDir, "sets"),
			Source: writeSource(t, srcDir, "ids.txt", "3\n1\n18446744073709551615\n"),
		},
	}
	require.NoError(t, cfg.Validate())

	results, err := run(context.Background(), cfg, discardLogger(), noop.NewTracerProvider())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(outDir, "locales.spp"), results[0].Path)
	assert.Equal(t, filepath.Join(outDir, "sets", "ids.lks"), results[1].Path)

	for _, r := range results {
		raw, err := os.ReadFile(r.Path)
		require.NoError(t, err)
		sum := blake2b.Sum256(raw)
		assert.Equal(t, hex.EncodeToString(sum[:]), r.Digest)
		assert.Zero(t, r.PayloadLen%4)
	}

	df := testutil.ReadDataFile(t, results[0].Path, binary.LittleEndian, core.DataInfoSize)
	assert.Equal(t, "locale names", df.Comment)
	assert.Equal(t, []byte("SPol"), df.Descriptor[8:12])
	assert.Equal(t, []byte{1, 0, 0, 0}, df.Descriptor[12:16])
	assert.Equal(t, []byte{45, 0, 0, 0}, df.Descriptor[16:20])
	assert.EqualValues(t, 3, binary.LittleEndian.Uint32(df.Payload[0:]))
	assert.EqualValues(t, core.CompressionLZ4, binary.LittleEndian.Uint32(df.Payload[4:]))
	assert.EqualValues(t, len(df.Payload), results[0].PayloadLen)

	df = testutil.ReadDataFile(t, results[1].Path, binary.LittleEndian, core.DataInfoSize)
	assert.Equal(t, []byte("LkSt"), df.Descriptor[8:12])
	assert.EqualValues(t, 3, binary.LittleEndian.Uint32(df.Payload[0:]))
	assert.Zero(t, results[1].PayloadLen%16)
}

func TestRun_JobSpansParentWriterSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srcDir := t.TempDir()
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	cfg.Output.DataDir = t.TempDir()
	cfg.Packages = []config.PackageConfig{
		{Kind: config.KindStrings, Name: "words", Source: writeSource(t, srcDir, "w.txt", "b\na\n")},
	}
	_, err = run(context.Background(), cfg, discardLogger(), tp)
	require.NoError(t, err)

	cfg.Packages = []config.PackageConfig{
		{Kind: config.KindLookup, Name: "missing", Source: filepath.Join(srcDir, "nope.txt")},
	}
	_, err = run(context.Background(), cfg, discardLogger(), tp)
	require.Error(t, err)

	jobs := map[string]sdktrace.ReadOnlySpan{}
	var writerSpans []sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "datagen.package":
			for _, kv := range span.Attributes() {
				if kv.Key == "datagen.package" {
					jobs[kv.Value.AsString()] = span
				}
			}
		case "newdata.Create", "newdata.Finish":
			writerSpans = append(writerSpans, span)
		}
	}

	require.Contains(t, jobs, "words")
	require.Contains(t, jobs, "missing")
	assert.Equal(t, "datagen/strings", jobs["words"].InstrumentationScope().Name)
	assert.Equal(t, codes.Error, jobs["missing"].Status().Code)

	require.Len(t, writerSpans, 2, "only the job with a readable source opens a writer")
	for _, span := range writerSpans {
		assert.Equal(t, jobs["words"].SpanContext().SpanID(), span.Parent().SpanID())
	}
}

func TestRun_DebugFiles(t *testing.T) {
	sys.SetDebugMode(true)
	t.Cleanup(func() { sys.SetDebugMode(false) })

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	cfg.Output.DataDir = t.TempDir()
	cfg.Packages = []config.PackageConfig{
		{Kind: config.KindLookup, Name: "dbg", Source: writeSource(t, t.TempDir(), "ids.txt", "7\n")},
	}

	results, err := run(context.Background(), cfg, discardLogger(), noop.NewTracerProvider())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotContains(t, sys.OpenHandles(), results[0].Path, "every sink is closed")
}

func TestRun_Failures(t *testing.T) {
	srcDir := t.TempDir()

	testCases := []struct {
		name string
		job  config.PackageConfig
	}{
		{"missing source", config.PackageConfig{Kind: config.KindStrings, Name: "a", Source: filepath.Join(srcDir, "nope.txt")}},
		{"bad lookup key", config.PackageConfig{Kind: config.KindLookup, Name: "b", Source: writeSource(t, srcDir, "b.txt", "1\ntwo\n")}},
		{"bad compression", config.PackageConfig{Kind: config.KindStrings, Name: "c", Source: writeSource(t, srcDir, "c.txt", "x\n"), Compression: "brotli"}},
		{"bad format", config.PackageConfig{Kind: config.KindStrings, Name: "d", Source: writeSource(t, srcDir, "d.txt", "x\n"), Format: "TOOLONG"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.Load(nil)
			require.NoError(t, err)
			cfg.Output.DataDir = t.TempDir()
			cfg.Packages = []config.PackageConfig{tc.job}

			_, err = run(context.Background(), cfg, discardLogger(), noop.NewTracerProvider())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "package "+tc.job.Name)
		})
	}
}
