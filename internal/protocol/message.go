// Package protocol implements the line codec shared by every transport:
// newline-delimited messages of comma-separated fields, first field the
// message type.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	TypeName      = "name"
	TypeHoldStart = "hold_start"
	TypeHoldEnd   = "hold_end"
)

var (
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrMalformedMessage = errors.New("malformed message")
)

// ClientMessage is one decoded inbound line. Only the fields relevant to
// Type are populated.
type ClientMessage struct {
	Type     string
	Name     string
	Row      int
	Col      int
	Duration float64
}

// ParseClientMessage decodes one inbound line. Unknown types and bad field
// counts or values are errors; the caller decides whether to drop or close.
func ParseClientMessage(line string) (*ClientMessage, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")

	switch parts[0] {
	case TypeName:
		if len(parts) != 2 || parts[1] == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		return &ClientMessage{Type: TypeName, Name: parts[1]}, nil

	case TypeHoldStart:
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		row, col, err := parseCoords(parts[1], parts[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		return &ClientMessage{Type: TypeHoldStart, Row: row, Col: col}, nil

	case TypeHoldEnd:
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		row, col, err := parseCoords(parts[1], parts[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		duration, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMessage, line)
		}

		return &ClientMessage{Type: TypeHoldEnd, Row: row, Col: col, Duration: duration}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, parts[0])
}

func parseCoords(rawRow, rawCol string) (int, int, error) {
	row, err := strconv.Atoi(rawRow)
	if err != nil {
		return 0, 0, err
	}

	col, err := strconv.Atoi(rawCol)
	if err != nil {
		return 0, 0, err
	}

	return row, col, nil
}

// epoch renders a timestamp as fractional unix seconds, matching what
// clients feed into their own countdown rendering.
func epoch(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
