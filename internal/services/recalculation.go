package services

import (
	"context"
	"fmt"

	"exitprotocol/internal/jobs"
)

// RecalculationHandler runs queued recalculation jobs against claims.
func RecalculationHandler(claims ClaimServicer) jobs.Handler {
	return func(ctx context.Context, job *jobs.Job) error {
		switch job.Kind {
		case jobs.KindClaim:
			_, err := claims.Calculate(ctx, job.TargetID)
			return err
		case jobs.KindAccount:
			results, err := claims.CalculateAll(ctx, job.TargetID)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d claims failed to calculate", failed, len(results))
			}
			return nil
		}
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
