package deal_test

import (
	"testing"

	"github.com/dealnet/deald/x/deal"
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestCreateDealMsg(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	validCoin := coin.NewCoin(1, 1, "TEST")
	zeroCoin := coin.NewCoin(0, 0, "TEST")
	negativeCoin := coin.NewCoin(-1, 0, "TEST")
	invalidCoin := coin.NewCoin(1, 1, "123456789")

	specs := map[string]struct {
		Mutator func(msg *deal.CreateDealMsg)
		Exp     *errors.Error
	}{
		"Happy path": {},
		"Invalid metadata": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Metadata.Schema = 0
			},
			Exp: errors.ErrMetadata,
		},
		"Missing beneficiary": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Beneficiary = nil
			},
			Exp: deal.ErrInvalidBeneficiary,
		},
		"Malformed beneficiary": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Beneficiary = weave.Address{0x1}
			},
			Exp: deal.ErrInvalidBeneficiary,
		},
		"Missing amount": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Amount = nil
			},
			Exp: deal.ErrInvalidAmount,
		},
		"Zero amount": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Amount = &zeroCoin
			},
			Exp: deal.ErrInvalidAmount,
		},
		"Negative amount": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Amount = &negativeCoin
			},
			Exp: deal.ErrInvalidAmount,
		},
		"Invalid coin": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Amount = &invalidCoin
			},
			Exp: deal.ErrInvalidAmount,
		},
		"No depositor is fine": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Depositor = nil
			},
		},
		"Malformed depositor": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Depositor = weave.Address{0x1}
			},
			Exp: errors.ErrInput,
		},
		"Invalid memo": {
			Mutator: func(msg *deal.CreateDealMsg) {
				msg.Memo = string(make([]byte, 129))
			},
			Exp: errors.ErrInput,
		},
	}
	for msg, spec := range specs {
		baseMsg := deal.CreateDealMsg{
			Metadata:    &weave.Metadata{Schema: 1},
			Depositor:   alice.Address(),
			Beneficiary: bob.Address(),
			Amount:      &validCoin,
			Memo:        "",
		}

		t.Run(msg, func(t *testing.T) {
			if spec.Mutator != nil {
				spec.Mutator(&baseMsg)
			}
			err := baseMsg.Validate()
			if !spec.Exp.Is(err) {
				t.Fatalf("check expected: %v  but got %+v", spec.Exp, err)
			}
		})
	}
}

func TestReleaseDealMsg(t *testing.T) {
	specs := map[string]struct {
		Mutator func(msg *deal.ReleaseDealMsg)
		Exp     *errors.Error
	}{
		"Happy path": {},
		"Invalid metadata": {
			Mutator: func(msg *deal.ReleaseDealMsg) {
				msg.Metadata.Schema = 0
			},
			Exp: errors.ErrMetadata,
		},
		"Missing DealID": {
			Mutator: func(msg *deal.ReleaseDealMsg) {
				msg.DealID = nil
			},
			Exp: errors.ErrInput,
		},
		"Short DealID": {
			Mutator: func(msg *deal.ReleaseDealMsg) {
				msg.DealID = make([]byte, 7)
			},
			Exp: errors.ErrInput,
		},
	}
	for msg, spec := range specs {
		baseMsg := deal.ReleaseDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   weavetest.SequenceID(1),
		}

		t.Run(msg, func(t *testing.T) {
			if spec.Mutator != nil {
				spec.Mutator(&baseMsg)
			}
			err := baseMsg.Validate()
			if !spec.Exp.Is(err) {
				t.Fatalf("check expected: %v  but got %+v", spec.Exp, err)
			}
		})
	}
}

func TestReturnDealMsg(t *testing.T) {
	specs := map[string]struct {
		Mutator func(msg *deal.ReturnDealMsg)
		Exp     *errors.Error
	}{
		"Happy path": {},
		"Invalid metadata": {
			Mutator: func(msg *deal.ReturnDealMsg) {
				msg.Metadata.Schema = 0
			},
			Exp: errors.ErrMetadata,
		},
		"Missing DealID": {
			Mutator: func(msg *deal.ReturnDealMsg) {
				msg.DealID = nil
			},
			Exp: errors.ErrInput,
		},
	}
	for msg, spec := range specs {
		baseMsg := deal.ReturnDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   weavetest.SequenceID(1),
		}

		t.Run(msg, func(t *testing.T) {
			if spec.Mutator != nil {
				spec.Mutator(&baseMsg)
			}
			err := baseMsg.Validate()
			if !spec.Exp.Is(err) {
				t.Fatalf("check expected: %v  but got %+v", spec.Exp, err)
			}
		})
	}
}
