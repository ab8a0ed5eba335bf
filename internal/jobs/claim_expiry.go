// File: internal/jobs/claim_expiry.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"green_planet_backend/internal/config"
	"green_planet_backend/internal/donation"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ClaimExpiryJob periodically returns claimed donations to the available pool
// when the approved claim was never completed within the pickup window.
type ClaimExpiryJob struct {
	donationService *donation.Service
	logger          *zap.Logger
	cfg             *config.Config
	cronScheduler   *cron.Cron
}

// NewClaimExpiryJob creates a new ClaimExpiryJob.
func NewClaimExpiryJob(
	donationService *donation.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *ClaimExpiryJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &ClaimExpiryJob{
		donationService: donationService,
		logger:          logger.Named("ClaimExpiryJob"),
		cfg:             cfg,
		cronScheduler:   scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *ClaimExpiryJob) SetupAndStart() error {
	jobSpec := j.cfg.ClaimSweepJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Claim sweep schedule not defined (CLAIM_SWEEP_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule claim sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Claim sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *ClaimExpiryJob) runJob() {
	j.logger.Info("Starting claim sweep run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -j.cfg.ClaimExpiryDays)
	reverted, err := j.donationService.RevertStaleClaimed(ctx, cutoff)
	if err != nil {
		j.logger.Error("Claim sweep run failed", zap.Error(err))
	} else {
		j.logger.Info("Claim sweep run completed", zap.Int64("donations_reverted", reverted))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *ClaimExpiryJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping claim sweep scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Claim sweep scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Claim sweep scheduler stop timed out.")
		}
	}
}

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
