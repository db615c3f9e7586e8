package deal

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/cash"
)

func TestGenesisDeals(t *testing.T) {
	const genesis = `
{
  "deal": [
    {
      "depositor": "0000000000000000000000000000000000000000",
      "beneficiary": "C30A2424104F542576EF01FECA2FF558F5EAA61A",
      "amount": {"ticker": "IOV", "whole": 500},
      "opened_at": 1572451200,
      "memo": "carried over"
    },
    {
      "depositor": "0000000000000000000000000000000000000000",
      "beneficiary": "B1CA7E78F74423AE01DA3B51E676934D9105F282",
      "amount": {"ticker": "IOV", "whole": 7},
      "opened_at": 1572000000,
      "settled": true
    }
  ]}`

	var opts weave.Options
	assert.IsErr(t, nil, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	migration.MustInitPkg(db, "deal", "cash")

	// when
	cashCtrl := cash.NewController(cash.NewBucket())
	ini := Initializer{Minter: cashCtrl}
	assert.IsErr(t, nil, ini.FromGenesis(opts, weave.GenesisParams{}, db))

	// then
	bucket := NewBucket()
	var first Deal
	assert.IsErr(t, nil, bucket.One(db, weavetest.SequenceID(1), &first))

	assert.Equal(t, "c30a2424104f542576ef01feca2ff558f5eaa61a", hex.EncodeToString(first.Beneficiary))
	assert.Equal(t, false, first.Settled)
	assert.Equal(t, weave.UnixTime(1572451200), first.OpenedAt)
	assert.Equal(t, "carried over", first.Memo)

	// an unsettled genesis deal is funded
	balance, err := cashCtrl.Balance(db, first.Address)
	assert.IsErr(t, nil, err)
	assert.Equal(t, 1, len(balance))
	assert.Equal(t, coin.Coin{Ticker: "IOV", Whole: 500}, *balance[0])

	// a settled genesis deal is recorded but holds no coins
	var second Deal
	assert.IsErr(t, nil, bucket.One(db, weavetest.SequenceID(2), &second))
	assert.Equal(t, true, second.Settled)
	if _, err := cashCtrl.Balance(db, second.Address); err == nil {
		t.Fatal("settled genesis deal account is expected to be empty")
	}
}
