package payout

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/Niiaks/Ledgerly/internal/model"
)

// Payout dates: midnight on the 1st and 15th, or on the 1st only.
var frequencySpecs = map[model.ScheduleFrequency]string{
	model.FrequencyBiMonthly: "0 0 1,15 * *",
	model.FrequencyMonthly:   "0 0 1 * *",
}

func configError(field, format string, args ...any) error {
	return pkgerrors.WithStack(&model.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// ValidateConfiguration checks a seller's payout policy against the
// platform's threshold floor.
func ValidateConfiguration(cfg model.PayoutConfiguration, floor decimal.Decimal) error {
	switch cfg.Method {
	case model.MethodSchedule:
		if _, ok := frequencySpecs[cfg.ScheduleFrequency]; !ok {
			return configError("schedule_frequency", "unrecognized frequency %q", cfg.ScheduleFrequency)
		}
	case model.MethodThreshold:
		if cfg.ThresholdMinimum.IsNegative() {
			return configError("threshold_minimum", "must not be negative")
		}
		if cfg.ThresholdMinimum.LessThan(floor) {
			return configError("threshold_minimum", "must be at least %s", floor.StringFixed(2))
		}
		if cfg.ThresholdMaximum.Valid && cfg.ThresholdMaximum.Decimal.LessThan(cfg.ThresholdMinimum) {
			return configError("threshold_maximum", "%s is below the minimum %s",
				cfg.ThresholdMaximum.Decimal.StringFixed(2), cfg.ThresholdMinimum.StringFixed(2))
		}
	default:
		return configError("method", "unrecognized method %q", cfg.Method)
	}
	return nil
}

func scheduleFor(freq model.ScheduleFrequency) (cron.Schedule, error) {
	spec, ok := frequencySpecs[freq]
	if !ok {
		return nil, configError("schedule_frequency", "unrecognized frequency %q", freq)
	}
	return cron.ParseStandard(spec)
}
