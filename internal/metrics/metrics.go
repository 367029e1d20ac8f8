package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exposed on /metrics
var (
	// SignupsTotal counts successful signups
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referhub_signups_total",
		Help: "Total number of successful signups",
	})

	// ReferralsTotal counts signups completed with a valid referral code
	ReferralsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referhub_referrals_total",
		Help: "Total number of completed referrals",
	})

	// RedemptionsTotal counts successful reward redemptions
	RedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referhub_redemptions_total",
		Help: "Total number of reward redemptions",
	})
)
