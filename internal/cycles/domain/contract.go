package domain

import "predpraznik_backend/platform/apperr"

// Frequency is the agreed mat exchange interval of a signed contract.
type Frequency string

const (
	FrequencyOneWeek    Frequency = "1_week"
	FrequencyTwoWeeks   Frequency = "2_weeks"
	FrequencyThreeWeeks Frequency = "3_weeks"
	FrequencyFourWeeks  Frequency = "4_weeks"
)

// ParseFrequency accepts only the four contract intervals.
func ParseFrequency(value string) (Frequency, error) {
	switch f := Frequency(value); f {
	case FrequencyOneWeek, FrequencyTwoWeeks, FrequencyThreeWeeks, FrequencyFourWeeks:
		return f, nil
	}
	return "", apperr.Validation("contract frequency must be one of 1_week, 2_weeks, 3_weeks, 4_weeks")
}

// ValidateSignContract checks that a contract may be signed on a cycle.
func ValidateSignContract(status Status, alreadySigned bool) error {
	if status != StatusOnTest {
		return apperr.Conflict("contracts can only be signed while the mat is on test")
	}
	if alreadySigned {
		return apperr.Conflict("contract already signed")
	}
	return nil
}
