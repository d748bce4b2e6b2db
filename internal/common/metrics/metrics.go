package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "escalation_bot"

	EngineSubsystem    = "engine"
	TransportSubsystem = "transport"
)

// Метрики воронок.
var (
	PendingMessagesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: EngineSubsystem,
			Name:      "pending_messages_count",
			Help:      "Current number of unanswered messages in the store",
		},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: EngineSubsystem,
			Name:      "escalations_total",
			Help:      "Total number of tier escalations",
		},
		[]string{"tier"},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: EngineSubsystem,
			Name:      "resolutions_total",
			Help:      "Total number of resolved conversations",
		},
		[]string{"source"},
	)

	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: EngineSubsystem,
			Name:      "inbound_messages_total",
			Help:      "Total number of inbound messages by handling outcome",
		},
		[]string{"outcome"},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: EngineSubsystem,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full classify-compose-publish cycle",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Метрики публикации отчётов.
var (
	ReportsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TransportSubsystem,
			Name:      "reports_published_total",
			Help:      "Total number of consolidated report publications",
		},
		[]string{"status"},
	)

	ReportDeletesFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TransportSubsystem,
			Name:      "report_deletes_failed_total",
			Help:      "Total number of failed deletions of superseded reports",
		},
	)

	TelegramRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: TransportSubsystem,
			Name:      "telegram_request_duration_seconds",
			Help:      "Telegram API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func SetPendingMessages(count int) {
	PendingMessagesCount.Set(float64(count))
}

func RecordEscalation(tier string) {
	EscalationsTotal.WithLabelValues(tier).Inc()
}

func RecordResolution(source string) {
	ResolutionsTotal.WithLabelValues(source).Inc()
}

func RecordInboundMessage(outcome string) {
	InboundMessagesTotal.WithLabelValues(outcome).Inc()
}

func RecordTick(duration time.Duration) {
	TickDuration.Observe(duration.Seconds())
}

func RecordReportPublished(status string) {
	ReportsPublishedTotal.WithLabelValues(status).Inc()
}

func RecordReportDeleteFailed() {
	ReportDeletesFailedTotal.Inc()
}

func RecordTelegramRequest(method string, duration time.Duration) {
	TelegramRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
