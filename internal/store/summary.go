package store

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MaxFingers is the largest count a reading can hold.
const MaxFingers = 5

// Summary aggregates the readings of a session.
type Summary struct {
	SessionID string  `json:"session_id"`
	Frames    int     `json:"frames"`
	Detected  int     `json:"detected"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Mode      int     `json:"mode"`
	// Histogram[n] is the number of frames that counted n fingers.
	Histogram [MaxFingers + 1]int `json:"histogram"`
}

// Summary computes count statistics over all readings of a session.
func (r *SessionRepository) Summary(id string) (*Summary, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}

	readings, err := (&ReadingRepository{db: r.db}).ListBySession(id)
	if err != nil {
		return nil, err
	}

	return Summarize(id, readings), nil
}

// Summarize computes count statistics over readings.
func Summarize(sessionID string, readings []Reading) *Summary {
	sum := &Summary{SessionID: sessionID, Frames: len(readings)}
	if len(readings) == 0 {
		return sum
	}

	counts := make([]float64, len(readings))
	for i, rd := range readings {
		counts[i] = float64(rd.Fingers)
		if rd.Status == "ok" {
			sum.Detected++
		}
	}

	if len(counts) > 1 {
		sum.Mean, sum.StdDev = stat.MeanStdDev(counts, nil)
	} else {
		sum.Mean = counts[0]
	}

	// stat.Histogram requires sorted input.
	sort.Float64s(counts)

	mode, _ := stat.Mode(counts, nil)
	sum.Mode = int(mode)

	dividers := make([]float64, MaxFingers+2)
	for i := range dividers {
		dividers[i] = float64(i)
	}
	hist := stat.Histogram(nil, dividers, counts, nil)
	for i, n := range hist {
		sum.Histogram[i] = int(n)
	}

	return sum
}
