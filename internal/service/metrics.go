package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ppeUnitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hse",
		Name:      "ppe_units_total",
		Help:      "PPE units moved through the stock ledger.",
	},
	[]string{"action"},
)
