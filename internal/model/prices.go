package model

import (
	"fmt"
	"time"
)

// observationLayout is how the upstream reports an observation's point in
// time: a calendar date plus a minute-of-day label, combined into one string.
const observationLayout = "2006-01-02 15:04"

// PriceObservation is one minute-resolution trading record for one symbol on
// one calendar day. All price fields are optional on the wire (the upstream
// reports null for minutes without trades); the trade count is always present.
type PriceObservation struct {
	Date           string   `json:"date"`
	Minute         string   `json:"minute"`
	Label          string   `json:"label"`
	High           *float64 `json:"high"`
	Low            *float64 `json:"low"`
	Open           *float64 `json:"open"`
	Close          *float64 `json:"close"`
	Average        *float64 `json:"average"`
	Volume         *uint64  `json:"volume"`
	Notional       *float64 `json:"notional"`
	NumberOfTrades uint64   `json:"numberOfTrades"`
	ChangeOverTime *float64 `json:"changeOverTime"`
}

// Timestamp combines the observation's date ("2021-05-21") and minute
// ("09:30") into a single point in time. A malformed date or minute fails
// with a parse error; callers must treat that as fatal for the observation.
func (p PriceObservation) Timestamp() (time.Time, error) {
	t, err := time.Parse(observationLayout, fmt.Sprintf("%s %s", p.Date, p.Minute))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse observation time: %w", err)
	}
	return t, nil
}
