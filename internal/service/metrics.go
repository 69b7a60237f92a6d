package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storyStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_story_starts_total",
		Help: "Total number of startStory calls that created or reset a save.",
	})

	choicesAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_choices_total",
			Help: "Total number of makeChoice calls by outcome.",
		},
		[]string{"outcome"},
	)

	transitionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_transition_conflicts_total",
		Help: "Total number of serialization failures observed during transitions (including retried ones).",
	})
)
