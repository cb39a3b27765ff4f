// Package geo converts coordinates entered as degrees, minutes and seconds
// into signed decimal degrees.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidHemisphere = errors.New("hemisphere must be one of N, S, E, W")
	ErrOutOfRange        = errors.New("coordinate out of range")
	ErrInvalidNumber     = errors.New("invalid coordinate number")
	ErrUnsupportedFormat = errors.New("unsupported coordinate format")
)

// Input formats accepted for a single coordinate.
const (
	FormatDecimal = "decimal"
	FormatDMS     = "dms"
)

// decimalPlaces is the precision kept after conversion (about 1 cm).
const decimalPlaces = 7

var (
	sixty     = decimal.NewFromInt(60)
	thirtySix = decimal.NewFromInt(3600)
)

// DMS is a degree-minute-second coordinate with its hemisphere letter.
type DMS struct {
	Deg float64 `json:"deg"`
	Min float64 `json:"min"`
	Sec float64 `json:"sec"`
	Dir string  `json:"dir"`
}

// ToDecimal returns |deg| + min/60 + sec/3600, negated for S and W.
func (d DMS) ToDecimal() (float64, error) {
	dir := strings.ToUpper(strings.TrimSpace(d.Dir))
	if len(dir) != 1 || !strings.Contains("NSEW", dir) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHemisphere, d.Dir)
	}
	if d.Min < 0 || d.Min >= 60 || d.Sec < 0 || d.Sec >= 60 {
		return 0, fmt.Errorf("%w: minutes and seconds must be in [0, 60)", ErrOutOfRange)
	}

	deg := decimal.NewFromFloat(d.Deg).Abs()
	value := deg.
		Add(decimal.NewFromFloat(d.Min).Div(sixty)).
		Add(decimal.NewFromFloat(d.Sec).Div(thirtySix)).
		Round(decimalPlaces)

	if dir == "S" || dir == "W" {
		value = value.Neg()
	}
	limit := decimal.NewFromInt(180)
	if dir == "N" || dir == "S" {
		limit = decimal.NewFromInt(90)
	}
	if value.Abs().GreaterThan(limit) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, value.String())
	}
	f, _ := value.Float64()
	return f, nil
}

// CoordinateInput is a latitude or longitude as typed into a distribution form.
type CoordinateInput struct {
	Format  string `json:"format"`
	Decimal string `json:"decimal,omitempty"`
	DMS     *DMS   `json:"dms,omitempty"`
}

// Resolve converts the input to signed decimal degrees. A blank decimal
// input yields nil.
func (c CoordinateInput) Resolve() (*float64, error) {
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case FormatDMS:
		if c.DMS == nil {
			return nil, nil
		}
		v, err := c.DMS.ToDecimal()
		if err != nil {
			return nil, err
		}
		return &v, nil
	case "", FormatDecimal:
		s := strings.TrimSpace(c.Decimal)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, c.Decimal)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, c.Format)
	}
}
