// Package metrics registers the Prometheus counters and histograms the
// publish orchestrator reports, grounded on the teacher's registry-wide
// metrics registration pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UploadsTotal counts completed package uploads by terminal status
	// ("success" or "failure"); an already-published duplicate counts as
	// "success".
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "publish",
		Name:      "uploads_total",
		Help:      "Total number of package version uploads, by terminal status.",
	}, []string{"status"})

	// UploadDuration observes wall-clock seconds per package from upload
	// POST until the upload and, when enabled, the provenance step finish.
	UploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "publish",
		Name:      "upload_duration_seconds",
		Help:      "Duration of a single package upload, from submission until upload and provenance attachment finish.",
		Buckets:   prometheus.DefBuckets,
	})
)

// MustRegister registers every metric in this package against reg. The
// caller supplies the registry (typically prometheus.DefaultRegisterer)
// so tests can use an isolated one instead.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(UploadsTotal, UploadDuration)
}
