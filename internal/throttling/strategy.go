package throttling

import (
	"fmt"
	"strings"
)

// Strategy selects how the pipeline behaves once the backlog reaches the limit.
type Strategy int

const (
	// None disables throttling.
	None Strategy = iota
	// Discard drops the work outright.
	Discard
	// DiscardOnFixedTimeout bounds the send by Delay milliseconds.
	DiscardOnFixedTimeout
	// DiscardOnPercentageTimeout bounds the send by waiting*Delay/100 milliseconds.
	DiscardOnPercentageTimeout
	// DeferForFixedTime blocks the caller for Delay milliseconds before sending.
	DeferForFixedTime
	// DeferForPercentageTime blocks the caller for waiting*Delay/100 milliseconds.
	DeferForPercentageTime
)

var strategyNames = map[Strategy]string{
	None:                       "none",
	Discard:                    "discard",
	DiscardOnFixedTimeout:      "discard-on-fixed-timeout",
	DiscardOnPercentageTimeout: "discard-on-percentage-timeout",
	DeferForFixedTime:          "defer-for-fixed-time",
	DeferForPercentageTime:     "defer-for-percentage-time",
}

// String returns the kebab-case name used in configuration files.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name. Matching ignores case, dashes and
// underscores, so "DiscardOnFixedTimeout", "discard_on_fixed_timeout" and
// "discard-on-fixed-timeout" are equivalent. The empty string means None.
func ParseStrategy(s string) (Strategy, error) {
	key := normalizeName(s)
	if key == "" {
		return None, nil
	}
	for strategy, name := range strategyNames {
		if normalizeName(name) == key {
			return strategy, nil
		}
	}
	return None, fmt.Errorf("unknown throttling strategy %q", s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}

func (s Strategy) deferring() bool {
	return s == DeferForFixedTime || s == DeferForPercentageTime
}

func (s Strategy) timingOut() bool {
	return s == DiscardOnFixedTimeout || s == DiscardOnPercentageTimeout
}

func (s Strategy) percentage() bool {
	return s == DiscardOnPercentageTimeout || s == DeferForPercentageTime
}
