package app

import (
	"strconv"

	"github.com/calehh/charity-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "charitydao"

type Metrics struct {
	Txs       *prometheus.CounterVec
	Events    *prometheus.CounterVec
	Height    prometheus.Gauge
	QueryErrs *prometheus.CounterVec
}

// NewMetrics registers the app collectors on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_total",
			Help:      "Transactions executed, by type and result code.",
		}, []string{"type", "code"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Events emitted by executed transactions.",
		}, []string{"type"}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "block_height",
			Help:      "Height of the last finalized block.",
		}),
		QueryErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "query_errors_total",
			Help:      "Failed ABCI queries, by path.",
		}, []string{"path"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Txs, m.Events, m.Height, m.QueryErrs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveTx(tp tx.TxType, res *abcitypes.ExecTxResult) {
	m.Txs.WithLabelValues(tp.String(), strconv.FormatUint(uint64(res.Code), 10)).Inc()
	for _, ev := range res.Events {
		m.Events.WithLabelValues(ev.Type).Inc()
	}
}
