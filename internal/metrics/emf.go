// Package metrics emits CloudWatch Embedded Metric Format (EMF) lines. Each
// flushed Recorder becomes one JSON line on the configured writer; when the
// process runs on Lambda or with the CloudWatch agent tailing stdout, the
// metrics are extracted from the log stream without any API calls.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Namespace is the CloudWatch namespace used by every binary in this repo.
const Namespace = "SpotTheDifference"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitSeconds      = "Seconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Emitter owns the output stream and the dimensions shared by every record.
// It is safe for concurrent use; a nil *Emitter discards everything.
type Emitter struct {
	namespace string
	service   string

	mu  sync.Mutex
	out io.Writer
}

// NewEmitter writes EMF lines for namespace to out. A nil out means stdout.
func NewEmitter(namespace, service string, out io.Writer) *Emitter {
	if out == nil {
		out = os.Stdout
	}
	return &Emitter{namespace: namespace, service: service, out: out}
}

// Record starts a new Recorder bound to this emitter.
func (e *Emitter) Record() *Recorder {
	r := &Recorder{
		emitter:    e,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]any),
		properties: make(map[string]any),
	}
	if e == nil {
		return r
	}
	r.namespace = e.namespace
	if e.service != "" {
		r.dimensions["Service"] = e.service
	}
	if fn := lambdaFunctionName(); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

func (e *Emitter) write(line []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.out.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "emf: write failed: %v\n", err)
	}
}

var (
	functionName string
	initOnce     sync.Once
)

func lambdaFunctionName() string {
	initOnce.Do(func() { functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") })
	return functionName
}

// Recorder accumulates one EMF document. It is not safe for concurrent use;
// create one per operation.
type Recorder struct {
	emitter    *Emitter
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]any
	properties map[string]any
}

// Dimension adds an indexed attribute to the record.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count records name with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Microseconds())/1000, UnitMilliseconds)
}

// Property adds a searchable, non-metric field.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the record as a single line. Records without metrics, or
// bound to a nil emitter, are dropped.
func (r *Recorder) Flush() {
	if r.emitter == nil || len(r.metrics) == 0 {
		return
	}
	data, err := r.marshal(time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	r.emitter.write(data)
}

func (r *Recorder) marshal(now time.Time) ([]byte, error) {
	doc := make(map[string]any, len(r.dimensions)+len(r.values)+len(r.properties)+1)

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]metricDef, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.metrics[name])
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	// Properties first so metrics and dimensions win on a key clash.
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = emfDirective{
		Timestamp: now.UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    defs,
		}},
	}
	return json.Marshal(doc)
}
