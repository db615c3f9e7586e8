package deal

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &Deal{}, migration.NoModification)
}

var _ orm.CloneableData = (*Deal)(nil)

// Validate ensures the deal is valid
func (d *Deal) Validate() error {
	if err := d.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := d.Depositor.Validate(); err != nil {
		return errors.Wrap(err, "depositor")
	}
	if d.Beneficiary == nil {
		return errors.Wrap(ErrInvalidBeneficiary, "missing")
	}
	if err := d.Beneficiary.Validate(); err != nil {
		return errors.Wrap(ErrInvalidBeneficiary, err.Error())
	}
	if d.Amount == nil {
		return errors.Wrap(ErrInvalidAmount, "missing")
	}
	if err := d.Amount.Validate(); err != nil {
		return errors.Wrap(ErrInvalidAmount, err.Error())
	}
	if !d.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "non-positive amount: %v", d.Amount)
	}
	if d.OpenedAt == 0 {
		// Zero time is a valid value that dates to 1970-01-01. We know
		// that this value makes no sense for a deal and was most
		// likely not provided.
		return errors.Wrap(errors.ErrInput, "opened at is required")
	}
	if err := d.OpenedAt.Validate(); err != nil {
		return errors.Wrap(err, "invalid opened at value")
	}
	if len(d.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", d.Memo)
	}
	if err := d.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// Copy makes a new deal with the same values
func (d *Deal) Copy() orm.CloneableData {
	return &Deal{
		Metadata:    d.Metadata.Copy(),
		Depositor:   d.Depositor,
		Beneficiary: d.Beneficiary,
		Amount:      d.Amount,
		OpenedAt:    d.OpenedAt,
		Settled:     d.Settled,
		Address:     d.Address.Clone(),
		Memo:        d.Memo,
	}
}

// Condition calculates the address of a deal account given the deal key.
func Condition(key []byte) weave.Condition {
	return weave.NewCondition("deal", "seq", key)
}

// NewBucket returns a bucket for keeping deals. Settled deals are kept as
// well, this bucket is append only.
func NewBucket() orm.ModelBucket {
	b := orm.NewModelBucket("deal", &Deal{},
		orm.WithIDSequence(dealSeq),
		orm.WithIndex("depositor", idxDepositor, false),
		orm.WithIndex("beneficiary", idxBeneficiary, false),
	)
	return migration.NewModelBucket("deal", b)
}

var dealSeq = orm.NewSequence("deal", "id")

func toDeal(obj orm.Object) (*Deal, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	d, ok := obj.Value().(*Deal)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "can only take index of Deal")
	}
	return d, nil
}

func idxDepositor(obj orm.Object) ([]byte, error) {
	d, err := toDeal(obj)
	if err != nil {
		return nil, err
	}
	return d.Depositor, nil
}

func idxBeneficiary(obj orm.Object) ([]byte, error) {
	d, err := toDeal(obj)
	if err != nil {
		return nil, err
	}
	return d.Beneficiary, nil
}
