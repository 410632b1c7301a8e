// Package metrics exposes Prometheus counters for the voting engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Join outcomes
const (
	JoinCreated   = "created"
	JoinRebound   = "rebound"
	JoinUnchanged = "unchanged"
)

// Recorder is the metrics surface used by services and middleware
type Recorder interface {
	RecordVoteCast()
	RecordVoteRejected(reason string)
	RecordTableCreated()
	RecordTableClosed(records int)
	RecordCloseRejected(reason string)
	RecordVotesReset()
	RecordJoin(outcome string)
	RecordHTTPRequest(method string, status int, duration time.Duration)
}

// Collector records metrics into a Prometheus registry
type Collector struct {
	votesCast      prometheus.Counter
	votesRejected  *prometheus.CounterVec
	tablesCreated  prometheus.Counter
	tablesClosed   prometheus.Counter
	recordsWritten prometheus.Counter
	closeRejected  *prometheus.CounterVec
	votesReset     prometheus.Counter
	joins          *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokertable_votes_cast_total",
			Help: "Votes accepted",
		}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokertable_votes_rejected_total",
			Help: "Votes rejected by reason",
		}, []string{"reason"}),
		tablesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokertable_tables_created_total",
			Help: "Tables created",
		}),
		tablesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokertable_tables_closed_total",
			Help: "Tables closed",
		}),
		recordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokertable_participation_records_total",
			Help: "Participation records written on close",
		}),
		closeRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokertable_close_rejected_total",
			Help: "Close requests rejected by reason",
		}, []string{"reason"}),
		votesReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokertable_votes_reset_total",
			Help: "Reset-all-votes operations",
		}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokertable_joins_total",
			Help: "Join requests by outcome",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pokertable_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokertable_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.votesCast,
		c.votesRejected,
		c.tablesCreated,
		c.tablesClosed,
		c.recordsWritten,
		c.closeRejected,
		c.votesReset,
		c.joins,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordVoteCast() {
	c.votesCast.Inc()
}

func (c *Collector) RecordVoteRejected(reason string) {
	c.votesRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordTableCreated() {
	c.tablesCreated.Inc()
}

// RecordTableClosed counts a successful close and the records it produced
func (c *Collector) RecordTableClosed(records int) {
	c.tablesClosed.Inc()
	c.recordsWritten.Add(float64(records))
}

func (c *Collector) RecordCloseRejected(reason string) {
	c.closeRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordVotesReset() {
	c.votesReset.Inc()
}

func (c *Collector) RecordJoin(outcome string) {
	c.joins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Nop discards every measurement
type Nop struct{}

func (Nop) RecordVoteCast()                              {}
func (Nop) RecordVoteRejected(string)                    {}
func (Nop) RecordTableCreated()                          {}
func (Nop) RecordTableClosed(int)                        {}
func (Nop) RecordCloseRejected(string)                   {}
func (Nop) RecordVotesReset()                            {}
func (Nop) RecordJoin(string)                            {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
