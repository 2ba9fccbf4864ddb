// Package waveform reads waveform descriptor rows (CSS3.0 wfdisc) into
// in-memory traces. Rows are selected with engine-native subsets, each row's
// sample file is trimmed to the requested window, and every trace keeps the
// record it came from.
package waveform

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"seisadapt/internal/datascope"
)

var (
	// ErrParameter is returned when a query sets only one end of the window.
	ErrParameter = errors.New("waveform: parameter error")

	// ErrEmptyResult is returned when no descriptor row survives the filters.
	ErrEmptyResult = errors.New("waveform: empty result")
)

// Query selects descriptor rows. Station and Channel are regular expressions
// matched against the whole value. A zero time is unset; Start and End must
// be set together.
type Query struct {
	Station string
	Channel string
	Start   time.Time
	End     time.Time
}

func (q Query) window() (bool, error) {
	switch {
	case q.Start.IsZero() && q.End.IsZero():
		return false, nil
	case q.Start.IsZero() || q.End.IsZero():
		return false, fmt.Errorf("%w: start and end time must be given together", ErrParameter)
	}
	return true, nil
}

// Options control how descriptor rows are resolved to files.
type Options struct {
	// Root is prepended to relative dir values.
	Root string
	// Network fills Stats.Network; wfdisc has no network column.
	Network string
	// Table is the descriptor table ReadDatabase looks up.
	Table string
}

// Stats is the header of a trace.
type Stats struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	StartTime  time.Time
	SampleRate float64
	Npts       int
	Calib      float64
	Calper     float64
}

// EndTime is the time of the last sample.
func (s Stats) EndTime() time.Time {
	if s.Npts == 0 || s.SampleRate <= 0 {
		return s.StartTime
	}
	return s.StartTime.Add(seconds(float64(s.Npts-1) / s.SampleRate))
}

// ID is the SEED identifier NET.STA.LOC.CHAN.
func (s Stats) ID() string {
	return strings.Join([]string{s.Network, s.Station, s.Location, s.Channel}, ".")
}

// Trace is one contiguous run of samples. Record is the descriptor row the
// samples were read from.
type Trace struct {
	Stats  Stats
	Data   []float64
	Path   string
	Record *datascope.Record
}

const timeLayout = "2006-01-02T15:04:05.000000Z"

func (t *Trace) String() string {
	return fmt.Sprintf("%s | %s - %s | %.1f Hz, %d samples",
		t.Stats.ID(),
		t.Stats.StartTime.UTC().Format(timeLayout),
		t.Stats.EndTime().UTC().Format(timeLayout),
		t.Stats.SampleRate, t.Stats.Npts)
}

// Stream is the traces of one read in row order.
type Stream []*Trace

func (s Stream) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d Trace(s) in Stream:", len(s))
	for _, t := range s {
		b.WriteString("\n")
		b.WriteString(t.String())
	}
	return b.String()
}

// Epoch converts a time to epoch seconds.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// FromEpoch converts epoch seconds to a UTC time rounded to the microsecond.
func FromEpoch(f float64) time.Time {
	return time.UnixMicro(int64(math.Round(f * 1e6))).UTC()
}

func seconds(f float64) time.Duration {
	return time.Duration(math.Round(f * 1e6)) * time.Microsecond
}
