package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CredentialsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crewbadge_credentials_issued_total",
		Help: "Total number of signed badge credentials issued.",
	})

	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewbadge_validations_total",
		Help: "Total number of credential validations, labelled by outcome.",
	}, []string{"outcome"})

	BadgesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewbadge_badges_rendered_total",
		Help: "Total number of badge documents rendered, labelled by strategy.",
	}, []string{"strategy"})

	RostersRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crewbadge_rosters_rendered_total",
		Help: "Total number of roster documents rendered.",
	})

	ImageLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewbadge_image_loads_total",
		Help: "Total number of image loads, labelled by source and status.",
	}, []string{"source", "status"})

	FieldRenderSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewbadge_field_render_skips_total",
		Help: "Template fields skipped during custom rendering, labelled by field type.",
	}, []string{"field"})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crewbadge_render_duration_ms",
		Help:    "End-to-end badge render latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	ArchiveQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crewbadge_archive_queue_utilization_ratio",
		Help: "Current batch render queue utilization (0–1).",
	})
)
