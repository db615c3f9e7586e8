package deal

import (
	"github.com/iov-one/weave/errors"
)

var (
	// ErrInvalidBeneficiary is returned when a deal names no beneficiary
	// or a malformed one.
	ErrInvalidBeneficiary = errors.Register(1700, "invalid beneficiary")

	// ErrInvalidAmount is returned when a deal amount is missing, zero or
	// negative.
	ErrInvalidAmount = errors.Register(1701, "invalid amount")

	// ErrTransferShortfall is returned when the deal account received less
	// than the declared amount during deal creation.
	ErrTransferShortfall = errors.Register(1702, "transfer shortfall")

	// ErrNotBeneficiary is returned when someone other than the
	// beneficiary tries to release a deal.
	ErrNotBeneficiary = errors.Register(1703, "not the beneficiary")

	// ErrNotDepositor is returned when someone other than the depositor
	// tries to return a deal.
	ErrNotDepositor = errors.Register(1704, "not the depositor")

	// ErrAlreadySettled is returned when a release or return is attempted
	// on a deal that was settled before.
	ErrAlreadySettled = errors.Register(1705, "deal already settled")

	// ErrStillLocked is returned when a release is attempted before the
	// deal matured.
	ErrStillLocked = errors.Register(1706, "deal still locked")

	// ErrWindowClosed is returned when a return is attempted after the
	// deal matured.
	ErrWindowClosed = errors.Register(1707, "return window closed")

	// ErrReentrantCall is returned when a deal operation is entered while
	// another one is still executing.
	ErrReentrantCall = errors.Register(1708, "reentrant call")
)
