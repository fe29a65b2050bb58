package qibla

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"
)

// Source produces compass headings. Every call to Readings starts a fresh,
// lazy sequence; cancelling ctx ends it. A read failure is yielded once as
// a non-nil error and ends the sequence.
type Source interface {
	Readings(ctx context.Context) iter.Seq2[Bearing, error]
}

// StaticSource yields a single fixed heading.
type StaticSource struct {
	Heading Bearing
}

// Readings yields Heading once, unless ctx is already done.
func (s StaticSource) Readings(ctx context.Context) iter.Seq2[Bearing, error] {
	return func(yield func(Bearing, error) bool) {
		if ctx.Err() != nil {
			return
		}
		yield(s.Heading, nil)
	}
}

// ReaderSource parses one reading per line from a stream, such as a sensor
// bridge piped into stdin. A line is "<true> [<magnetic>]"; a true heading of
// -1 means the device has no true-north fix and the magnetic one is used.
// Unparsable lines are skipped.
type ReaderSource struct {
	// Open is called at the start of every sequence.
	Open func() (io.ReadCloser, error)
}

// Readings yields one bearing per parsable line of a freshly opened stream
// and closes the stream when the sequence ends.
func (s ReaderSource) Readings(ctx context.Context) iter.Seq2[Bearing, error] {
	return func(yield func(Bearing, error) bool) {
		rc, err := s.Open()
		if err != nil {
			yield(Bearing{}, fmt.Errorf("opening heading stream: %w", err))
			return
		}
		defer rc.Close()

		// Unblock the scanner when the subscription is cancelled.
		stop := context.AfterFunc(ctx, func() { rc.Close() })
		defer stop()

		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			b, err := parseReading(sc.Text())
			if err != nil {
				slog.Debug("skipping heading line", "line", sc.Text(), "err", err)
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.ErrClosedPipe) {
			yield(Bearing{}, fmt.Errorf("reading heading stream: %w", err))
		}
	}
}

func parseReading(line string) (Bearing, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Bearing{}, errors.New("empty line")
	}

	trueHeading, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Bearing{}, fmt.Errorf("invalid true heading: %w", err)
	}
	if trueHeading != -1 {
		return Degrees(trueHeading), nil
	}

	if len(fields) < 2 {
		return Bearing{}, errors.New("no true heading and no magnetic heading")
	}
	mag, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Bearing{}, fmt.Errorf("invalid magnetic heading: %w", err)
	}
	return Degrees(mag), nil
}
