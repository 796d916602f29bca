package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count to a time.Duration.
func Ms(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }

// Sleeper blocks the caller with time.Sleep. On TinyGo this is the scheduler
// sleep backed by the SysTick/RTC timer, so it never wakes early.
type Sleeper struct{}

func (Sleeper) DelayMs(ms uint32) {
	if ms == 0 {
		return
	}
	time.Sleep(Ms(ms))
}
