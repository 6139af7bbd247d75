package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mystic_forest_sessions_created_total",
		Help: "Total number of created game sessions.",
	})

	choicesAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mystic_forest_choices_applied_total",
			Help: "Total number of applied choices by sentiment tag.",
		},
		[]string{"tag"},
	)

	endingsReachedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mystic_forest_endings_reached_total",
			Help: "Total number of reached endings by category.",
		},
		[]string{"category"},
	)

	choiceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mystic_forest_choice_errors_total",
			Help: "Total number of rejected choices by error kind.",
		},
		[]string{"kind"},
	)

	sessionResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mystic_forest_session_resets_total",
		Help: "Total number of session resets.",
	})
)
