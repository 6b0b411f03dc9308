package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then its collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.uploadsReceived.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("school"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the names carry the namespace and subsystem", func() {
				manager.uploadsStored.Inc()
				n, err := testutil.GatherAndCount(registry, "school_test_uploads_stored_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording ingestion counters", func() {
			before := testutil.ToFloat64(globalManager.uploadsReceived)
			RecordUploadReceived()
			RecordUploadReceived()

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.uploadsReceived)-before, ShouldEqual, 2)
			})
		})

		Convey("When recording a rejection", func() {
			before := testutil.ToFloat64(globalManager.uploadsRejected.WithLabelValues("invalid"))
			RecordUploadRejected("invalid")

			Convey("Then the labelled counter advances", func() {
				after := testutil.ToFloat64(globalManager.uploadsRejected.WithLabelValues("invalid"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When publishing the current state", func() {
			UpdateCurrentState(87.5, 40, map[string]int{"green": 30, "gray": 2})

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.schoolAverage), ShouldEqual, 87.5)
				So(testutil.ToFloat64(globalManager.uniqueStudents), ShouldEqual, 40)
				So(testutil.ToFloat64(globalManager.tierStudents.WithLabelValues("green")), ShouldEqual, 30)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordUploadDuplicate()
				RecordUploadStored()
				UpdateStoredUploads(3)
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(0.3)
				RecordAggregationLatency("summary", 1.2)
				RecordHTTPRequest("summary", "GET", "200")
				RecordHTTPRequestDuration("summary", "GET", "200", 2)
				RecordErrorByComponent("queue", "full")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
