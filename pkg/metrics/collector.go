// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/cashback-bot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation step transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	cashbackWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashback_entries_written_total",
			Help: "Cashback entries saved by the entry wizard, split by insert or replace",
		},
		[]string{"mode"},
	)
	cashbackDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cashback_entries_deleted_total",
			Help: "Cashback entries removed by the deletion wizard",
		},
	)
	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_conversations",
			Help: "Current number of users inside a wizard",
		},
	)
	conversationsByStep = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conversations_by_step",
			Help: "Number of users per conversation step",
		},
		[]string{"step"},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation step changes.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// CashbackObserver counts the data effects of finished wizards.
type CashbackObserver struct{}

func (CashbackObserver) EntrySaved(_ context.Context, _ int64, replaced bool) {
	mode := "insert"
	if replaced {
		mode = "replace"
	}
	cashbackWritesTotal.WithLabelValues(mode).Inc()
}

func (CashbackObserver) EntriesDeleted(_ context.Context, _ int64, n int64) {
	cashbackDeletedTotal.Add(float64(n))
}

// ConversationLister returns every active conversation.
type ConversationLister interface {
	All(ctx context.Context) ([]*state.Conversation, error)
}

// StateCollector periodically gathers conversation step counts and emits gauge metrics.
type StateCollector struct {
	source   ConversationLister
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided source.
func NewStateCollector(source ConversationLister, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StateCollector{source: source, interval: interval}
}

// Run polls the source every interval, updating gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	convs, err := c.source.All(ctx)
	if err != nil {
		return err
	}

	activeConversations.Set(float64(len(convs)))

	counts := make(map[state.Step]int, len(convs))
	for _, conv := range convs {
		counts[state.StepOf(conv)]++
	}

	conversationsByStep.Reset()
	for _, step := range state.Steps() {
		conversationsByStep.WithLabelValues(string(step)).Set(float64(counts[step]))
	}

	return nil
}
