package metrics

import "mouldtrack-backend/internal/fault"

// Utilization watermarks. Crossing WarnWatermark while a machine is running
// raises a maintenance warning; crossing MaintenanceWatermark forces the
// machine into maintenance.
const (
	WarnWatermark        = 0.95
	MaintenanceWatermark = 0.98
)

// Utilization returns strokeCount / utilizationLimit. The ratio is undefined
// for a non-positive limit; that machine's threshold evaluation must be
// disabled rather than treated as zero.
func Utilization(strokeCount int64, utilizationLimit int64) (float64, error) {
	if utilizationLimit <= 0 {
		return 0, fault.Configurationf("utilization limit must be positive, got %d", utilizationLimit)
	}
	return float64(strokeCount) / float64(utilizationLimit), nil
}

// ThresholdCrossed reports whether ratio has reached the watermark. The
// boundary ratio == watermark counts as crossed.
func ThresholdCrossed(ratio, watermark float64) bool {
	return ratio >= watermark
}
