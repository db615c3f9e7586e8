package deal_test

import (
	"math"
	"testing"

	"github.com/dealnet/deald/x/deal"
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestDeal(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	amount := coin.NewCoin(500, 0, "TEST")
	zero := coin.NewCoin(0, 0, "TEST")

	specs := map[string]struct {
		Mutator func(dl *deal.Deal)
		Exp     *errors.Error
	}{
		"Happy path": {},
		"Settled deal is still valid": {
			Mutator: func(dl *deal.Deal) {
				dl.Settled = true
			},
		},
		"Invalid metadata": {
			Mutator: func(dl *deal.Deal) {
				dl.Metadata.Schema = 0
			},
			Exp: errors.ErrMetadata,
		},
		"Missing depositor": {
			Mutator: func(dl *deal.Deal) {
				dl.Depositor = nil
			},
			Exp: errors.ErrInput,
		},
		"Missing beneficiary": {
			Mutator: func(dl *deal.Deal) {
				dl.Beneficiary = nil
			},
			Exp: deal.ErrInvalidBeneficiary,
		},
		"Missing amount": {
			Mutator: func(dl *deal.Deal) {
				dl.Amount = nil
			},
			Exp: deal.ErrInvalidAmount,
		},
		"Zero amount": {
			Mutator: func(dl *deal.Deal) {
				dl.Amount = &zero
			},
			Exp: deal.ErrInvalidAmount,
		},
		"0 opened at": {
			Mutator: func(dl *deal.Deal) {
				dl.OpenedAt = 0
			},
			Exp: errors.ErrInput,
		},
		"Invalid opened at": {
			Mutator: func(dl *deal.Deal) {
				dl.OpenedAt = math.MinInt64
			},
			Exp: errors.ErrState,
		},
		"Invalid memo": {
			Mutator: func(dl *deal.Deal) {
				dl.Memo = string(make([]byte, 129))
			},
			Exp: errors.ErrInput,
		},
		"Address is required": {
			Mutator: func(dl *deal.Deal) {
				dl.Address = nil
			},
			Exp: errors.ErrInput,
		},
	}
	for msg, spec := range specs {
		baseDeal := deal.Deal{
			Metadata:    &weave.Metadata{Schema: 1},
			Depositor:   alice.Address(),
			Beneficiary: bob.Address(),
			Amount:      &amount,
			OpenedAt:    weave.UnixTime(1),
			Address:     deal.Condition(weavetest.SequenceID(1)).Address(),
		}

		t.Run(msg, func(t *testing.T) {
			if spec.Mutator != nil {
				spec.Mutator(&baseDeal)
			}
			err := baseDeal.Validate()
			if !spec.Exp.Is(err) {
				t.Fatalf("check expected: %v  but got %+v", spec.Exp, err)
			}
		})
	}
}
