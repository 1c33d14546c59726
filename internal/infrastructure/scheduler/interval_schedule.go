package scheduler

import (
	"fmt"
	"time"
)

// Every is a fixed-interval schedule.
type Every time.Duration

// Next returns t plus the interval.
func (e Every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

func (e Every) String() string {
	return fmt.Sprintf("@every %s", time.Duration(e))
}
