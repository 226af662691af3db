package monitor

import "time"

// AlignDelay returns how long to wait so that acquisition starts on the
// next exact multiple of period past the minute. The sub-second part of
// now counts toward the elapsed time. The result is in [0, period); a
// clock already sitting on a boundary waits zero.
func AlignDelay(now time.Time, period time.Duration) time.Duration {
	intoMinute := time.Duration(now.Second())*time.Second + time.Duration(now.Nanosecond())
	return (period - intoMinute%period) % period
}
