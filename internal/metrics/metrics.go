// Package metrics holds the prometheus collectors of the extraction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages used as the "stage" label.
const (
	StageRasterize = "rasterize"
	StageLocate    = "locate"
	StageCrop      = "crop"
	StageStore     = "store"
	StageAssets    = "assets"
	StagePartition = "partition"
	StagePersist   = "persist"
)

var (
	pagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vistext_pages_processed_total",
			Help: "Total number of rasterized pages run through region detection",
		},
	)

	regionsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vistext_regions_detected",
			Help:    "Number of candidate regions accepted per page",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
	)

	imagesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistext_images_extracted_total",
			Help: "Total number of images kept, by source",
		},
		[]string{"source"}, // detected_region, embedded, partition
	)

	imageScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vistext_image_quality_score",
			Help:    "Heuristic quality score of scored images",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	topicsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistext_topics_classified_total",
			Help: "Total number of text blocks classified, by question type",
		},
		[]string{"type"},
	)

	stageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vistext_stage_errors_total",
			Help: "Total number of recoverable failures, by pipeline stage",
		},
		[]string{"stage"},
	)

	pageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vistext_page_duration_seconds",
			Help:    "Time spent rasterizing and detecting one page",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// PageProcessed records one finished page and the regions it produced.
func PageProcessed(d time.Duration, regions int) {
	pagesProcessed.Inc()
	pageDuration.Observe(d.Seconds())
	regionsDetected.Observe(float64(regions))
}

// ImageKept counts an image persisted from the given source.
func ImageKept(source string) { imagesExtracted.WithLabelValues(source).Inc() }

// ImageScored observes a quality score.
func ImageScored(score int) { imageScores.Observe(float64(score)) }

// TopicClassified counts a classified block.
func TopicClassified(questionType string) { topicsClassified.WithLabelValues(questionType).Inc() }

// StageFailed counts a recoverable failure.
func StageFailed(stage string) { stageErrors.WithLabelValues(stage).Inc() }

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
