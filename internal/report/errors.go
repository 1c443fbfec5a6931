package report

import (
	apperrors "github.com/webpack-chart/pkg/errors"
)

var (
	// ErrMalformedReport is returned when the input is not JSON or has no usable module list.
	ErrMalformedReport = apperrors.ErrMalformedReport

	// ErrMalformedRecord is returned in strict mode for a module entry without a valid name or size.
	ErrMalformedRecord = apperrors.ErrMalformedRecord
)

func malformedReport(msg string, err error) error {
	return apperrors.Wrap(apperrors.CodeMalformedReport, msg, err)
}

func malformedRecord(msg string, err error) error {
	return apperrors.Wrap(apperrors.CodeMalformedRecord, msg, err)
}
