package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// noLambda pins the cached function name for test isolation.
func noLambda(name string) {
	initOnce.Do(func() {})
	functionName = name
}

func TestEmitter_FunctionNameDimension(t *testing.T) {
	noLambda("spotdiff-chat")
	defer noLambda("")

	rec := NewEmitter("TestNamespace", "", &bytes.Buffer{}).Record()
	if rec.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", rec.namespace)
	}
	if rec.dimensions["FunctionName"] != "spotdiff-chat" {
		t.Errorf("expected FunctionName dimension spotdiff-chat, got %s", rec.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	noLambda("")
	var buf bytes.Buffer

	NewEmitter(Namespace, "spotdiff", &buf).Record().
		Dimension("Step", "metadata").
		Metric("StepLatency", 1234.5, UnitMilliseconds).
		Count("StepCount").
		Property("attemptId", "abc-123").
		Flush()

	output := buf.String()
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", output)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, output)
	}

	awsMap, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]any)
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}
	dims := cw["Dimensions"].([]any)[0].([]any)
	if len(dims) != 2 || dims[0] != "Service" || dims[1] != "Step" {
		t.Errorf("expected sorted dimensions [Service Step], got %v", dims)
	}

	if doc["Service"] != "spotdiff" {
		t.Errorf("expected Service=spotdiff, got %v", doc["Service"])
	}
	if doc["Step"] != "metadata" {
		t.Errorf("expected Step=metadata, got %v", doc["Step"])
	}
	if doc["StepLatency"] != 1234.5 {
		t.Errorf("expected StepLatency=1234.5, got %v", doc["StepLatency"])
	}
	if doc["StepCount"] != float64(1) {
		t.Errorf("expected StepCount=1, got %v", doc["StepCount"])
	}
	if doc["attemptId"] != "abc-123" {
		t.Errorf("expected attemptId=abc-123, got %v", doc["attemptId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewEmitter("Test", "", &buf).Record().Dimension("Step", "x").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for a recorder without metrics, got: %s", buf.String())
	}
}

func TestRecorder_NilEmitter(t *testing.T) {
	var e *Emitter
	// Must not panic.
	e.Record().Count("Calls").Flush()
}

func TestRecorder_Chaining(t *testing.T) {
	noLambda("")
	rec := NewEmitter("Test", "", &bytes.Buffer{}).Record().
		Dimension("Op", "test").
		Duration("Latency", 1500*time.Microsecond).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Latency"] != 1.5 {
		t.Errorf("expected Latency=1.5ms, got %v", rec.values["Latency"])
	}
	if m := rec.metrics["Calls"]; m.Unit != UnitCount || rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
