package metrics

import (
	"time"

	"kgrag/pkg/ai"
	"kgrag/pkg/graph"
	"kgrag/pkg/query"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ingestItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kgrag_ingest_items_total",
	Help: "Items processed by ingestion, labelled by kind",
}, []string{"kind"})

var ingestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kgrag_ingest_runs_total",
	Help: "Ingestion runs labelled by status",
}, []string{"status"})

var modelRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "kgrag_model_requests_total",
	Help: "Requests sent to the language model",
})

var modelTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kgrag_model_tokens_total",
	Help: "Tokens exchanged with the language model, labelled by direction",
}, []string{"direction"})

var modelDurationSeconds = promauto.NewCounter(prometheus.CounterOpts{
	Name: "kgrag_model_duration_seconds_total",
	Help: "Time spent waiting for the language model",
})

var queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kgrag_queries_total",
	Help: "Questions answered labelled by status",
}, []string{"status"})

var queryStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "kgrag_query_step_duration_seconds",
	Help:    "Duration of the steps of answering a question.",
	Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
}, []string{"step", "status"})

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveIngest adds the counters of one ingestion run.
func ObserveIngest(stats graph.ProcessStats, err error) {
	ingestRunsTotal.WithLabelValues(status(err)).Inc()
	ingestItemsTotal.WithLabelValues("files").Add(float64(stats.Files))
	ingestItemsTotal.WithLabelValues("pages").Add(float64(stats.Pages))
	ingestItemsTotal.WithLabelValues("chunks").Add(float64(stats.Chunks))
	ingestItemsTotal.WithLabelValues("records").Add(float64(stats.Records))
	ingestItemsTotal.WithLabelValues("dropped").Add(float64(stats.Dropped))
	ingestItemsTotal.WithLabelValues("nodes").Add(float64(stats.Nodes))
	ingestItemsTotal.WithLabelValues("relationships").Add(float64(stats.Relationships))
}

// ObserveModel adds model usage. Callers pass the usage accumulated since
// their last call.
func ObserveModel(m ai.ModelMetrics) {
	modelRequestsTotal.Add(float64(m.Requests))
	modelTokensTotal.WithLabelValues("input").Add(float64(m.InputTokens))
	modelTokensTotal.WithLabelValues("output").Add(float64(m.OutputTokens))
	modelDurationSeconds.Add((time.Duration(m.DurationMs) * time.Millisecond).Seconds())
}

// ObserveQuery counts one answered question.
func ObserveQuery(err error) {
	queriesTotal.WithLabelValues(status(err)).Inc()
}

// QueryTracer records the duration of every query step.
type QueryTracer struct{}

var _ query.Tracer = QueryTracer{}

func (QueryTracer) Record(event query.TraceEvent) {
	st := "ok"
	if event.Error != "" {
		st = "error"
	}
	queryStepDuration.WithLabelValues(string(event.Kind), st).
		Observe((time.Duration(event.DurationMs) * time.Millisecond).Seconds())
}

// UsageSource reports accumulated model usage.
type UsageSource interface {
	GetMetrics() ai.ModelMetrics
}

// RegisterQueryModel exports the usage of the model client answering
// questions. The client's metrics must never be reset.
func RegisterQueryModel(reg prometheus.Registerer, client UsageSource) error {
	requests := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "kgrag_query_model_requests_total",
		Help: "Requests sent to the language model while answering questions",
	}, func() float64 { return float64(client.GetMetrics().Requests) })
	tokens := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "kgrag_query_model_tokens_total",
		Help: "Tokens exchanged with the language model while answering questions",
	}, func() float64 { return float64(client.GetMetrics().TotalTokens) })

	for _, c := range []prometheus.Collector{requests, tokens} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
