package core

import "time"

// Clock supplies the current time to deadline checks. Policy code must sample
// it once per logical operation so a single check is internally consistent.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns Time; used by tests to pin deadlines.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
