package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnparseable is returned when input is neither RFC3339 nor natural language.
var ErrUnparseable = errors.New("could not parse time")

// ParseTime accepts an RFC3339 timestamp or a natural expression such as
// "next monday at 9am", resolved relative to base.
func ParseTime(input string, base time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "now") {
		return base, nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(strings.ToLower(input), base)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrUnparseable, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrUnparseable, input)
	}
	return r.Time.UTC(), nil
}
