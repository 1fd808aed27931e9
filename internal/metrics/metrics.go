package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// uploadCounter tracks upload attempts that reached storage.
	uploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "upload_total",
			Help:      "Total number of uploads by target category and result",
		},
		[]string{"category", "result"},
	)

	// archiveCounter tracks archive attempts by the last stage reached.
	archiveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "archive_total",
			Help:      "Total number of archive operations by stage reached and result",
		},
		[]string{"stage", "result"},
	)

	deleteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "delete_total",
			Help:      "Total number of delete operations by category and result",
		},
		[]string{"category", "result"},
	)

	refreshFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "refresh_category_failures_total",
			Help:      "Total number of failed per-category listings during refresh",
		},
		[]string{"category"},
	)

	refreshDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "filevault",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full category refresh in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		uploadCounter,
		archiveCounter,
		deleteCounter,
		refreshFailuresCounter,
		refreshDurationHistogram,
	)
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// RecordUpload records an upload into category.
func RecordUpload(category string, err error) {
	uploadCounter.WithLabelValues(category, result(err)).Inc()
}

// RecordArchive records an archive attempt that stopped at stage.
func RecordArchive(stage string, err error) {
	archiveCounter.WithLabelValues(stage, result(err)).Inc()
}

// RecordDelete records a delete from category.
func RecordDelete(category string, err error) {
	deleteCounter.WithLabelValues(category, result(err)).Inc()
}

// RecordRefreshFailure records a failed listing of category.
func RecordRefreshFailure(category string) {
	refreshFailuresCounter.WithLabelValues(category).Inc()
}

// ObserveRefresh records how long a refresh that started at start took.
func ObserveRefresh(start time.Time) {
	refreshDurationHistogram.Observe(time.Since(start).Seconds())
}
