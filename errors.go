package zosdatum

import "errors"

// configuration errors, returned before any record is read
var (
	ErrEmptySource      = errors.New("zosdatum: empty source")
	ErrSignatureTooLong = errors.New("zosdatum: signature longer than the record buffer")
	ErrRecordTooLong    = errors.New("zosdatum: record longer than the record buffer")
	ErrNilLayout        = errors.New("zosdatum: nil layout")
)

// stream errors
var (
	ErrNoRecordStart = errors.New("zosdatum: no record start found")
	ErrBadRDW        = errors.New("zosdatum: invalid record descriptor word")
	ErrLostSync      = errors.New("zosdatum: record boundary lost, seek to the next record start")
	ErrClosed        = errors.New("zosdatum: reader closed")
)
