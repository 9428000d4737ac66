package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_generations_total",
			Help: "Total number of LLM generation attempts",
		},
		[]string{"provider", "status"},
	)

	GenerationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_seconds",
			Help:    "Wall time of a single provider completion call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(Generations, GenerationSeconds)
}
