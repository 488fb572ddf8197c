package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersTotal counts checkout outcomes.
	OrdersTotal *prometheus.CounterVec
	// CouponRejectionsTotal counts rejected coupon applications by reason.
	CouponRejectionsTotal *prometheus.CounterVec
	// CartMutationsTotal counts cart mutation operations by kind and result.
	CartMutationsTotal *prometheus.CounterVec
	// EmailDeliveriesTotal counts transactional email deliveries by kind and result.
	EmailDeliveriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Count of checkout outcomes.",
		}, []string{"result"}))
		CouponRejectionsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_rejections_total",
			Help:      "Count of rejected coupon applications by reason.",
		}, []string{"reason"}))
		CartMutationsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutation operations.",
		}, []string{"op", "result"}))
		EmailDeliveriesTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_deliveries_total",
			Help:      "Count of transactional email deliveries.",
		}, []string{"kind", "result"}))
	})
}
