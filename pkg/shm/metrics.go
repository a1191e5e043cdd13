package shm

import "github.com/prometheus/client_golang/prometheus"

var (
	transactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "appshm",
		Name:      "transactions_total",
		Help:      "Total number of shared region transactions.",
	})
	pushAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appshm",
		Name:      "push_accepted_total",
		Help:      "Messages written into a mailbox, per channel.",
	}, []string{"channel"})
	pushRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appshm",
		Name:      "push_rejected_total",
		Help:      "Pushes rejected because the mailbox was still occupied, per channel.",
	}, []string{"channel"})
	pullDecodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appshm",
		Name:      "pull_decode_errors_total",
		Help:      "Occupied mailboxes whose bytes failed to decode during a pull, per channel.",
	}, []string{"channel"})
	payloadTruncations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "appshm",
		Name:      "payload_truncations_total",
		Help:      "Payloads silently truncated to the mailbox capacity.",
	})
)

func init() {
	prometheus.MustRegister(
		transactionsTotal,
		pushAccepted,
		pushRejected,
		pullDecodeErrors,
		payloadTruncations,
	)
}
