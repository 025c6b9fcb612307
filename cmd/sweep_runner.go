package main

import (
	"context"
	"errors"
	"log"
	"time"

	"stakefitBack/internal/models"
	"stakefitBack/internal/services"
)

const sweepRunTimeout = 5 * time.Minute

// startSweepRunner drives the payout sweep on a fixed interval. The external
// scheduler endpoint stays available; the Redis lock keeps the two from
// running the same pass twice.
func startSweepRunner(ctx context.Context, sweep *services.SweepService, intervalMinutes int, infoLog, errorLog *log.Logger) {
	if sweep == nil {
		return
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 15
	}

	go func() {
		ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, sweepRunTimeout)
			result, err := sweep.Run(runCtx, time.Now())
			cancel()
			if err != nil {
				if errors.Is(err, models.ErrSweepInProgress) {
					return
				}
				if errorLog != nil {
					errorLog.Printf("sweep runner: %v", err)
				}
				return
			}
			if infoLog != nil && result.Scanned > 0 {
				infoLog.Printf("sweep runner: scanned=%d missed=%d accepted=%d skipped=%d failed=%d",
					result.Scanned, result.Missed, result.Accepted, result.Skipped, result.Failed)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}

// startWithdrawalRunner retries the pending withdrawal queue once an hour.
func startWithdrawalRunner(ctx context.Context, withdrawals *services.WithdrawalService, infoLog, errorLog *log.Logger) {
	if withdrawals == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, sweepRunTimeout)
			result, err := withdrawals.ProcessQueue(runCtx)
			cancel()
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("withdrawal runner: %v", err)
				}
				return
			}
			if infoLog != nil && result.Processed > 0 {
				infoLog.Printf("withdrawal runner: processed=%d completed=%d retried=%d failed=%d",
					result.Processed, result.Completed, result.Retried, result.Failed)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
