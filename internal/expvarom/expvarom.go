// Package expvarom provides Prometheus-friendly variants of the stdlib
// expvar counters, following the teacher's internal/expvarom package
// shape (its own source was not part of the retrieved pack; this
// reconstructs its public surface from every call site in the teacher's
// tree: NewInt, NewMap and MetricsHandler).
package expvarom

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.Mutex
	registry   []metric
)

type metric interface {
	writeProm(w *strings.Builder)
}

// ExpInt is a monotonically-increasing counter, exported both via expvar
// (for the /debug/vars JSON endpoint) and via MetricsHandler (for a
// Prometheus-style text endpoint).
type ExpInt struct {
	name string
	help string
	v    expvar.Int
}

// NewInt registers and returns a new integer counter under name, with
// help as its one-line description.
func NewInt(name, help string) *ExpInt {
	e := &ExpInt{name: name, help: help}
	expvar.Publish(name, &e.v)
	register(e)
	return e
}

func (e *ExpInt) Add(delta int64) { e.v.Add(delta) }
func (e *ExpInt) Value() int64    { return e.v.Value() }

func (e *ExpInt) writeProm(w *strings.Builder) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
		promName(e.name), e.help, promName(e.name), promName(e.name), e.Value())
}

// ExpMap is a counter broken down by a single string label, e.g. response
// code or result status.
type ExpMap struct {
	name  string
	label string
	help  string
	mu    sync.Mutex
	v     expvar.Map
}

// NewMap registers and returns a new labeled counter map under name; label
// is the name Prometheus should give the breakdown dimension (e.g.
// "status", "result").
func NewMap(name, label, help string) *ExpMap {
	e := &ExpMap{name: name, label: label, help: help}
	e.v.Init()
	expvar.Publish(name, &e.v)
	register(e)
	return e
}

// Add increments the counter for the given label value by delta.
func (e *ExpMap) Add(value string, delta int64) {
	e.v.Add(value, delta)
}

func (e *ExpMap) writeProm(w *strings.Builder) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", promName(e.name), e.help, promName(e.name))
	var lines []string
	e.v.Do(func(kv expvar.KeyValue) {
		lines = append(lines, fmt.Sprintf("%s{%s=%q} %s\n",
			promName(e.name), e.label, kv.Key, kv.Value.String()))
	})
	sort.Strings(lines)
	for _, l := range lines {
		w.WriteString(l)
	}
}

func register(m metric) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, m)
}

func promName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// MetricsHandler serves every registered counter in Prometheus text
// exposition format, the way the teacher mounts it at "/metrics" in
// monitoring.go.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	registryMu.Lock()
	defer registryMu.Unlock()

	var b strings.Builder
	for _, m := range registry {
		m.writeProm(&b)
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(b.String()))
}
