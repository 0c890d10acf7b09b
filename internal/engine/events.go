package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/tbsim/pkg/logger"
	"github.com/okian/tbsim/pkg/metrics"
)

// checkAndRecordEvents runs every detector for the day just completed.
func (e *Engine) checkAndRecordEvents(day int, newInfections float64) {
	e.checkOutbreak(day, newInfections)
	e.checkIncidenceThreshold(day)
	e.checkPolicyBoundaries(day)
	e.checkDeathMilestones(day)
}

// checkOutbreak fires when today's new infections exceed twice the trailing
// seven-day average and an absolute floor.
func (e *Engine) checkOutbreak(day int, newInfections float64) {
	// The window excludes today: dailyInfections already ends with today's
	// value once history is appended.
	n := len(e.dailyInfections) - 1
	if n < 1 {
		return
	}
	start := n - outbreakWindowDays
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range e.dailyInfections[start:n] {
		sum += v
	}
	avg := sum / float64(n-start)

	if newInfections > outbreakMultiplier*avg && newInfections > outbreakFloor {
		e.recordEvent(day, EventOutbreakDetected,
			fmt.Sprintf("outbreak detected: %.0f new infections against a 7-day average of %.1f", newInfections, avg),
			map[string]float64{"newInfections": newInfections, "trailingAverage": avg},
		)
	}
}

// checkIncidenceThreshold fires when the annualized incidence rate crosses
// the low-incidence threshold in either direction.
func (e *Engine) checkIncidenceThreshold(day int) {
	rate := e.trailingIncidence()
	defer func() { e.prevIncidence = rate }()

	crossedDown := e.prevIncidence >= lowIncidenceThreshold && rate < lowIncidenceThreshold
	crossedUp := e.prevIncidence < lowIncidenceThreshold && rate >= lowIncidenceThreshold
	if day <= 1 || (!crossedDown && !crossedUp) {
		return
	}

	direction := "above"
	if crossedDown {
		direction = "below"
	}
	e.recordEvent(day, EventThresholdCrossed,
		fmt.Sprintf("incidence rate crossed %s %.0f per 100k", direction, lowIncidenceThreshold),
		map[string]float64{"incidenceRate": rate, "previous": e.prevIncidence},
	)
}

// checkPolicyBoundaries records an event whenever an intervention starts or
// ends on the current day.
func (e *Engine) checkPolicyBoundaries(day int) {
	for _, iv := range e.cfg.Interventions {
		if iv.StartDay == day {
			e.recordEvent(day, EventPolicyStart,
				fmt.Sprintf("intervention %q (%s) started", iv.Name, iv.Type), nil)
		}
		if iv.EndDay != nil && *iv.EndDay == day {
			e.recordEvent(day, EventPolicyEnd,
				fmt.Sprintf("intervention %q (%s) ended", iv.Name, iv.Type), nil)
		}
	}
}

// checkDeathMilestones records each fixed cumulative-death threshold once.
func (e *Engine) checkDeathMilestones(day int) {
	for _, m := range deathMilestones {
		if e.cumDeaths >= m && !e.milestonesHit[m] {
			e.milestonesHit[m] = true
			e.recordEvent(day, EventDeathMilestone,
				fmt.Sprintf("cumulative TB deaths passed %.0f", m),
				map[string]float64{"milestone": m, "cumulativeDeaths": e.cumDeaths},
			)
		}
	}
}

// recordEvent appends an event, dropping the oldest past the cap.
func (e *Engine) recordEvent(day int, typ EventType, description string, details map[string]float64) {
	e.events = append(e.events, Event{
		ID:          uuid.NewString(),
		Day:         day,
		Type:        typ,
		Description: description,
		Details:     details,
	})
	if len(e.events) > e.maxEvents {
		e.events = e.events[len(e.events)-e.maxEvents:]
	}

	if e.metricsEnabled {
		metrics.RecordEvent(string(typ))
	}
	e.logger.Debug(context.Background(), "event recorded",
		logger.Int("day", day),
		logger.String("type", string(typ)),
		logger.String("description", description),
	)
}
