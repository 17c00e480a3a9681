// Package promhook exports cache events as Prometheus counters.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachefront"
)

// Hooks counts events per cache namespace. Keys are never used as labels.
type Hooks struct {
	requests  *prometheus.CounterVec // result: hit | miss
	loads     *prometheus.CounterVec // result: shared | error | populate_skipped
	selfHeals *prometheus.CounterVec // reason
	rejected  prometheus.Counter
	genErrors prometheus.Counter
	outages   prometheus.Counter
}

var _ cachefront.Hooks = (*Hooks)(nil)

// New registers the counters on reg with a constant "namespace" label.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"namespace": namespace}

	h := &Hooks{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cachefront_requests_total",
			Help:        "Cache lookups by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cachefront_loads_total",
			Help:        "Loader outcomes worth alerting on.",
			ConstLabels: labels,
		}, []string{"result"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cachefront_self_heals_total",
			Help:        "Entries deleted on read, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cachefront_store_set_rejected_total",
			Help:        "Writes refused by the store.",
			ConstLabels: labels,
		}),
		genErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cachefront_gen_bump_errors_total",
			Help:        "Generation bumps that failed.",
			ConstLabels: labels,
		}),
		outages: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cachefront_evict_outages_total",
			Help:        "Evicts where both bump and delete failed.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{h.requests, h.loads, h.selfHeals, h.rejected, h.genErrors, h.outages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(string)                       { h.requests.WithLabelValues("hit").Inc() }
func (h *Hooks) Miss(string)                      { h.requests.WithLabelValues("miss").Inc() }
func (h *Hooks) LoadShared(string)                { h.loads.WithLabelValues("shared").Inc() }
func (h *Hooks) LoadError(string, error)          { h.loads.WithLabelValues("error").Inc() }
func (h *Hooks) PopulateSkipped(string)           { h.loads.WithLabelValues("populate_skipped").Inc() }
func (h *Hooks) SelfHeal(_ string, reason string) { h.selfHeals.WithLabelValues(reason).Inc() }
func (h *Hooks) StoreSetRejected(string)          { h.rejected.Inc() }
func (h *Hooks) GenBumpError(string, error)       { h.genErrors.Inc() }
func (h *Hooks) EvictOutage(string, error, error) { h.outages.Inc() }
