package scheduler

import (
	"context"

	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/metrics"
)

// SubscriptionStatsJob refreshes the subscriptions_total gauge.
type SubscriptionStatsJob struct {
	subs repository.SubscriptionRepository
}

func NewSubscriptionStatsJob(subs repository.SubscriptionRepository) *SubscriptionStatsJob {
	return &SubscriptionStatsJob{subs: subs}
}

func (j *SubscriptionStatsJob) Name() string { return "subscription_stats" }

func (j *SubscriptionStatsJob) Run(ctx context.Context) error {
	counts, err := j.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return err
	}
	metrics.SetSubscriptionsTotal(counts)
	return nil
}
