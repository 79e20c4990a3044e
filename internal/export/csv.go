package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/roman-kulish/skytrack/internal/tracking"
)

var csvHeader = []string{
	"timestamp",
	"ra_hours",
	"dec_degrees",
	"alt_degrees",
	"az_degrees",
	"velocity_ra",
	"velocity_dec",
	"velocity_alt",
	"velocity_az",
}

// WriteCSV writes samples with a header row. Velocity columns are blank for
// samples without a velocity.
func WriteCSV(w io.Writer, samples []tracking.PositionSample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(csvHeader))
	for _, s := range samples {
		record[0] = s.Timestamp.UTC().Format(time.RFC3339Nano)
		record[1] = formatFloat(s.RAHours)
		record[2] = formatFloat(s.DecDegrees)
		record[3] = formatFloat(s.AltDegrees)
		record[4] = formatFloat(s.AzDegrees)

		if s.VelocityValid {
			record[5] = formatFloat(s.Velocity.RA)
			record[6] = formatFloat(s.Velocity.Dec)
			record[7] = formatFloat(s.Velocity.Alt)
			record[8] = formatFloat(s.Velocity.Az)
		} else {
			record[5], record[6], record[7], record[8] = "", "", "", ""
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV
func ReadCSV(r io.Reader) ([]tracking.PositionSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: '%s', want '%s'", i+1, header[i], name)
		}
	}

	var samples []tracking.PositionSample
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		s, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func parseRecord(record []string) (tracking.PositionSample, error) {
	var (
		s   tracking.PositionSample
		err error
	)

	if s.Timestamp, err = time.Parse(time.RFC3339Nano, record[0]); err != nil {
		return s, fmt.Errorf("invalid timestamp: %w", err)
	}

	coords := []*float64{&s.RAHours, &s.DecDegrees, &s.AltDegrees, &s.AzDegrees}
	for i, dst := range coords {
		if *dst, err = strconv.ParseFloat(record[i+1], 64); err != nil {
			return s, fmt.Errorf("invalid %s: %w", csvHeader[i+1], err)
		}
	}

	if record[5] == "" {
		return s, nil
	}

	velocity := []*float64{&s.Velocity.RA, &s.Velocity.Dec, &s.Velocity.Alt, &s.Velocity.Az}
	for i, dst := range velocity {
		if *dst, err = strconv.ParseFloat(record[i+5], 64); err != nil {
			return s, fmt.Errorf("invalid %s: %w", csvHeader[i+5], err)
		}
	}
	s.Velocity.Total = math.Hypot(s.Velocity.RA, s.Velocity.Dec)
	s.VelocityValid = true

	return s, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
