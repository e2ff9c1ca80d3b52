package attempt

// Countdown is an immutable remaining-time value. Ticking returns a new
// value; remaining time never goes below zero. The zero value is an expired
// finite countdown.
type Countdown struct {
	remaining int
	unlimited bool
}

// NewCountdown returns a finite countdown starting at the given number of
// seconds. Negative inputs clamp to zero.
func NewCountdown(seconds int) Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return Countdown{remaining: seconds}
}

// UnlimitedCountdown returns a countdown that never expires.
func UnlimitedCountdown() Countdown {
	return Countdown{unlimited: true}
}

// Tick advances the countdown by one second.
func (c Countdown) Tick() Countdown {
	if c.unlimited || c.remaining == 0 {
		return c
	}
	c.remaining--
	return c
}

// IsUnlimited reports whether the countdown never expires.
func (c Countdown) IsUnlimited() bool {
	return c.unlimited
}

// Expired reports whether a finite countdown has reached zero.
func (c Countdown) Expired() bool {
	return !c.unlimited && c.remaining == 0
}

// Seconds returns the remaining seconds. It is zero for unlimited countdowns;
// callers that care must check IsUnlimited first.
func (c Countdown) Seconds() int {
	if c.unlimited {
		return 0
	}
	return c.remaining
}

// SecondsPtr returns the remaining seconds, or nil for unlimited countdowns.
// This matches the persisted snapshot encoding where null means untimed.
func (c Countdown) SecondsPtr() *int {
	if c.unlimited {
		return nil
	}
	n := c.remaining
	return &n
}
