package deal

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	// Migration needs to be registered for every message introduced in the codec.
	// This is the convention to message versioning.
	migration.MustRegister(1, &CreateDealMsg{}, migration.NoModification)
	migration.MustRegister(1, &ReleaseDealMsg{}, migration.NoModification)
	migration.MustRegister(1, &ReturnDealMsg{}, migration.NoModification)
}

const (
	pathCreateDeal  = "deal/create"
	pathReleaseDeal = "deal/release"
	pathReturnDeal  = "deal/return"

	maxMemoSize int = 128
)

var _ weave.Msg = (*CreateDealMsg)(nil)
var _ weave.Msg = (*ReleaseDealMsg)(nil)
var _ weave.Msg = (*ReturnDealMsg)(nil)

// ROUTING, Path method fulfills weave.Msg interface to allow routing

func (CreateDealMsg) Path() string {
	return pathCreateDeal
}

func (ReleaseDealMsg) Path() string {
	return pathReleaseDeal
}

func (ReturnDealMsg) Path() string {
	return pathReturnDeal
}

// VALIDATION, Validate method makes sure basic rules are enforced upon input data and fulfills weave.Msg interface

func (m *CreateDealMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Beneficiary == nil {
		return errors.Wrap(ErrInvalidBeneficiary, "missing")
	}
	if err := m.Beneficiary.Validate(); err != nil {
		return errors.Wrap(ErrInvalidBeneficiary, err.Error())
	}
	if m.Amount == nil {
		return errors.Wrap(ErrInvalidAmount, "missing")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(ErrInvalidAmount, err.Error())
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "non-positive amount: %v", m.Amount)
	}
	// Depositor is optional, the main signer is used when not set.
	if m.Depositor != nil {
		if err := m.Depositor.Validate(); err != nil {
			return errors.Wrap(err, "depositor")
		}
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", m.Memo)
	}
	return nil
}

func (m *ReleaseDealMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateDealID(m.DealID)
}

func (m *ReturnDealMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateDealID(m.DealID)
}

func validateDealID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "deal id: %X", id)
	}
	return nil
}
