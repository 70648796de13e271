package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ProvisionTotal counts linked-account provisioning outcomes.
	ProvisionTotal *prometheus.CounterVec
	// SettlementAttemptTotal counts settlement update attempts per strategy.
	SettlementAttemptTotal *prometheus.CounterVec
	// SplitOrderTotal counts split order creation outcomes.
	SplitOrderTotal *prometheus.CounterVec
	// VerifyTotal counts payment signature verification outcomes.
	VerifyTotal *prometheus.CounterVec
	// TransferTotal counts transfer execution outcomes.
	TransferTotal *prometheus.CounterVec
	// ReconciliationGapTotal counts verified payments whose transfer call failed.
	ReconciliationGapTotal prometheus.Counter
	// WebhookTotal counts inbound gateway webhook processing outcomes.
	WebhookTotal *prometheus.CounterVec
	// StatusUnknownShapeTotal counts provider responses whose status shape was not recognised.
	StatusUnknownShapeTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ProvisionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_total",
			Help:      "Count of linked-account provisioning outcomes.",
		}, []string{"result"})
		SettlementAttemptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_attempt_total",
			Help:      "Count of settlement update attempts by strategy and outcome.",
		}, []string{"strategy", "result"})
		SplitOrderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_order_total",
			Help:      "Count of split order creation outcomes.",
		}, []string{"result"})
		VerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verify_total",
			Help:      "Count of payment signature verification outcomes.",
		}, []string{"result"})
		TransferTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_total",
			Help:      "Count of transfer execution outcomes.",
		}, []string{"result"})
		ReconciliationGapTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_gap_total",
			Help:      "Verified payments whose fund transfer has not completed.",
		})
		WebhookTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_webhook_total",
			Help:      "Count of processed gateway webhooks by outcome.",
		}, []string{"result"})
		StatusUnknownShapeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_unknown_shape_total",
			Help:      "Provider status payloads that did not match any known shape.",
		})

		mustRegisterCollector(reg, ProvisionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ProvisionTotal = v
			}
		})
		mustRegisterCollector(reg, SettlementAttemptTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SettlementAttemptTotal = v
			}
		})
		mustRegisterCollector(reg, SplitOrderTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SplitOrderTotal = v
			}
		})
		mustRegisterCollector(reg, VerifyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VerifyTotal = v
			}
		})
		mustRegisterCollector(reg, TransferTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TransferTotal = v
			}
		})
		mustRegisterCollector(reg, ReconciliationGapTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReconciliationGapTotal = v
			}
		})
		mustRegisterCollector(reg, WebhookTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WebhookTotal = v
			}
		})
		mustRegisterCollector(reg, StatusUnknownShapeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StatusUnknownShapeTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, replace func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return
		}
		panic(err)
	}
}
