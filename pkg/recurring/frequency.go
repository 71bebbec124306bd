package recurring

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "bi-weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, BiWeekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func (f Frequency) PeriodsPerYear() int64 {
	switch f {
	case Daily:
		return 365
	case Weekly:
		return 52
	case BiWeekly:
		return 26
	case Quarterly:
		return 4
	case Yearly:
		return 1
	default:
		return 12
	}
}

// NextDueDate moves anchor one period forward. Month overflow normalizes the
// way time.AddDate does, so Jan 31 plus a month lands in early March.
func NextDueDate(f Frequency, anchor time.Time) time.Time {
	return shift(f, anchor, 1)
}

// PreviousDueDate moves anchor one period back.
func PreviousDueDate(f Frequency, anchor time.Time) time.Time {
	return shift(f, anchor, -1)
}

func shift(f Frequency, anchor time.Time, sign int) time.Time {
	switch f {
	case Daily:
		return anchor.AddDate(0, 0, sign)
	case Weekly:
		return anchor.AddDate(0, 0, 7*sign)
	case BiWeekly:
		return anchor.AddDate(0, 0, 14*sign)
	case Monthly:
		return anchor.AddDate(0, sign, 0)
	case Quarterly:
		return anchor.AddDate(0, 3*sign, 0)
	case Yearly:
		return anchor.AddDate(sign, 0, 0)
	default:
		log.Warnf("unknown frequency %q, falling back to monthly", f)
		return anchor.AddDate(0, sign, 0)
	}
}
