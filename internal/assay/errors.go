package assay

import (
	"errors"
	"fmt"
)

// Reasons attached to skipped and warning entries in a report.
const (
	ReasonMissingBlank            = "MissingBlankError"
	ReasonInsufficientCalibration = "InsufficientCalibrationDataError"
	ReasonMalformedPlateID        = "MalformedPlateIdError"
	ReasonMissingMass             = "MissingMassError"
	ReasonUndefinedAggregate      = "UndefinedAggregateWarning"
	ReasonControlLeak             = "UpstreamClassificationError"
	ReasonUnknown                 = "Error"
)

type reasoner interface {
	Reason() string
}

// ReasonOf returns the report reason for err.
func ReasonOf(err error) string {
	var r reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return ReasonUnknown
}

// MissingBlankError means a plate has no usable water-blank wells. The plate
// cannot be blank-corrected and is skipped.
type MissingBlankError struct {
	PlateID string
}

func (e *MissingBlankError) Error() string {
	return fmt.Sprintf("plate %s: no water-blank wells", e.PlateID)
}

func (e *MissingBlankError) Reason() string { return ReasonMissingBlank }

// InsufficientCalibrationDataError means a plate's standards cannot support a
// linear fit.
type InsufficientCalibrationDataError struct {
	PlateID string
	Levels  int
	Detail  string
}

func (e *InsufficientCalibrationDataError) Error() string {
	msg := fmt.Sprintf("plate %s: %d distinct standard levels, need at least %d", e.PlateID, e.Levels, MinStandardLevels)
	if e.Detail != "" {
		msg = fmt.Sprintf("plate %s: %s", e.PlateID, e.Detail)
	}
	return msg
}

func (e *InsufficientCalibrationDataError) Reason() string { return ReasonInsufficientCalibration }

// MalformedPlateIDError means no 8-digit run date is embedded in a plate ID.
type MalformedPlateIDError struct {
	PlateID string
}

func (e *MalformedPlateIDError) Error() string {
	return fmt.Sprintf("plate %s: no 8-digit run date in plate id", e.PlateID)
}

func (e *MalformedPlateIDError) Reason() string { return ReasonMalformedPlateID }

// MissingMassError means no soil mass was recorded for a sample on its run date.
type MissingMassError struct {
	SampleID string
	RunDate  string
}

func (e *MissingMassError) Error() string {
	return fmt.Sprintf("sample %s: no soil mass for run date %s", e.SampleID, e.RunDate)
}

func (e *MissingMassError) Reason() string { return ReasonMissingMass }
