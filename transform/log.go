// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package transform

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// LogLevel is a small severity enum, unlike rulio's core.LogLevel bitfield:
// the transform package has no per-rule Context to carry component/origin
// masks through, so severity alone is enough here. See core/log.go for the
// richer original.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return "unknown"
	}
}

// Logger is the logging interface every Interpreter and Coordinator logs
// through, mirroring rulio's core.Logger.
type Logger interface {
	Log(level LogLevel, args ...interface{})
	Metric(name string, args ...interface{})
}

// NullLogger discards everything. NewInterpreter and NewCoordinator install
// it as the default Logger.
type NullLogger struct{}

func (NullLogger) Log(LogLevel, ...interface{}) {}
func (NullLogger) Metric(string, ...interface{}) {}

// SimpleLogger renders each log record as one line of JSON, adapted
// directly from rulio's core/loggers.go SimpleLogger.
type SimpleLogger struct {
	w io.Writer
}

func NewSimpleLogger(w io.Writer) *SimpleLogger {
	return &SimpleLogger{w: w}
}

func (sl *SimpleLogger) Log(level LogLevel, args ...interface{}) {
	m := make(map[string]interface{}, len(args)/2+1)
	m["level"] = level.String()
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		if i+1 < len(args) {
			m[key] = args[i+1]
		} else {
			m[key] = "missing"
		}
	}
	bs, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(sl.w, "%v\n", m)
		return
	}
	fmt.Fprintln(sl.w, string(bs))
}

func (sl *SimpleLogger) Metric(name string, args ...interface{}) {
	all := append([]interface{}{"metric", name}, args...)
	sl.Log(INFO, all...)
}

// PromLogger counts Log calls by level and exposes Metric calls as
// Prometheus gauges, one per distinct metric name. See SPEC_FULL.md §2.1:
// the ambient stack carries Prometheus instrumentation the way
// prometheus/client_golang is used across the example corpus, even though
// the distilled spec never asked for metrics explicitly.
type PromLogger struct {
	next     Logger
	logTotal *prometheus.CounterVec
	gauges   *prometheus.GaugeVec
}

// NewPromLogger wraps next (may be nil) and registers its collectors with
// reg. Log calls are always forwarded to next after being counted; Metric
// calls update a gauge named by the metric and are also forwarded.
func NewPromLogger(reg prometheus.Registerer, next Logger) *PromLogger {
	if next == nil {
		next = NullLogger{}
	}
	pl := &PromLogger{
		next: next,
		logTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxmap",
			Subsystem: "transform",
			Name:      "log_records_total",
			Help:      "Count of transform package log records by level.",
		}, []string{"level"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fluxmap",
			Subsystem: "transform",
			Name:      "metric_value",
			Help:      "Last value reported under each transform package metric name.",
		}, []string{"metric"}),
	}
	reg.MustRegister(pl.logTotal, pl.gauges)
	return pl
}

func (pl *PromLogger) Log(level LogLevel, args ...interface{}) {
	pl.logTotal.WithLabelValues(level.String()).Inc()
	pl.next.Log(level, args...)
}

func (pl *PromLogger) Metric(name string, args ...interface{}) {
	if len(args) > 0 {
		if f, ok := toFloat64(args[0]); ok {
			pl.gauges.WithLabelValues(name).Set(f)
		}
	}
	pl.next.Metric(name, args...)
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// MultiLogger fans a single call out to several Loggers, used to attach a
// PromLogger alongside a human-readable SimpleLogger.
type MultiLogger struct {
	Loggers []Logger
}

func (ml MultiLogger) Log(level LogLevel, args ...interface{}) {
	for _, l := range ml.Loggers {
		l.Log(level, args...)
	}
}

func (ml MultiLogger) Metric(name string, args ...interface{}) {
	for _, l := range ml.Loggers {
		l.Metric(name, args...)
	}
}
