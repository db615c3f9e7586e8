package deal

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/x/cash"
	"github.com/pkg/errors"
)

var _ weave.Initializer = (*Initializer)(nil)

// Initializer fulfils the Initializer interface to load data from the genesis file
type Initializer struct {
	Minter cash.CoinMinter
}

// FromGenesis will parse initial deal info from genesis and save it in the
// database. Unsettled deals get their amount minted into the deal account so
// that a later release or return is funded.
func (i *Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, db weave.KVStore) error {
	var deals []struct {
		Depositor   weave.Address  `json:"depositor"`
		Beneficiary weave.Address  `json:"beneficiary"`
		Amount      *coin.Coin     `json:"amount"`
		OpenedAt    weave.UnixTime `json:"opened_at"`
		Settled     bool           `json:"settled"`
		Memo        string         `json:"memo"`
	}

	if err := opts.ReadOptions("deal", &deals); err != nil {
		return err
	}

	bucket := NewBucket()
	for j, d := range deals {
		key, err := dealSeq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire key")
		}
		dl := Deal{
			Metadata:    &weave.Metadata{Schema: 1},
			Depositor:   d.Depositor,
			Beneficiary: d.Beneficiary,
			Amount:      d.Amount,
			OpenedAt:    d.OpenedAt,
			Settled:     d.Settled,
			Address:     Condition(key).Address(),
			Memo:        d.Memo,
		}
		if err := dl.Validate(); err != nil {
			return errors.Wrapf(err, "invalid deal at position: %d", j)
		}
		if _, err := bucket.Put(db, key, &dl); err != nil {
			return errors.Wrap(err, "cannot store deal")
		}
		if dl.Settled {
			continue
		}
		if err := i.Minter.CoinMint(db, dl.Address, *dl.Amount); err != nil {
			return errors.Wrap(err, "failed to issue coins")
		}
	}
	return nil
}
