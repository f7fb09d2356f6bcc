package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestNewFileExporter_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))
}

func TestFileExporter_WritesParentAndLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child", trace.WithAttributes(attribute.String("k", "v")))
	child.End()
	_, linked := tracer.Start(context.Background(), "linked",
		trace.WithLinks(trace.Link{SpanContext: parent.SpanContext()}))
	linked.End()
	parent.End()

	require.NoError(t, exporter.ExportSpans(context.Background(), recorder.Ended()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 3)

	byName := make(map[string]SpanRecord)
	for _, rec := range records {
		byName[rec.Name] = rec
	}
	require.Equal(t, byName["parent"].SpanID, byName["child"].ParentSpanID)
	require.Equal(t, "v", byName["child"].Attributes["k"])
	require.Empty(t, byName["linked"].ParentSpanID)
	require.Equal(t, []LinkRecord{{
		TraceID: byName["parent"].TraceID,
		SpanID:  byName["parent"].SpanID,
	}}, byName["linked"].Links)
	require.Equal(t, "UNSET", byName["parent"].Status)
}

func TestFileExporter_ExportAfterShutdownFails(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()), "second shutdown is a no-op")

	err = exporter.ExportSpans(context.Background(), nil)
	require.Error(t, err)
}
