package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Decision outcomes recorded by DecisionCounter.
const (
	OutcomeAllow    = "allow"
	OutcomeRedirect = "redirect"
)

// DecisionCounter counts route decisions by route class and outcome.
// A nil *DecisionCounter records nothing.
type DecisionCounter struct {
	counter metric.Int64Counter
}

// NewDecisionCounter registers the access.decisions counter on meter.
func NewDecisionCounter(meter metric.Meter) (*DecisionCounter, error) {
	c, err := meter.Int64Counter(
		"access.decisions",
		metric.WithDescription("Route access decisions by class and outcome."),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}
	return &DecisionCounter{counter: c}, nil
}

// Record adds one decision.
func (d *DecisionCounter) Record(ctx context.Context, class, outcome string) {
	if d == nil {
		return
	}
	d.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("outcome", outcome),
	))
}
