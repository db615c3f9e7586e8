package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/weave"
	weaveapp "github.com/iov-one/weave/app"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/commands/server"
	"github.com/iov-one/weave/crypto"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/sigs"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/dealnet/deald/x/deal"
)

const testChainID = "test-deals-1"

var genesisTime = time.Date(2019, time.October, 1, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, genesisAddr weave.Address) weaveapp.BaseApp {
	t.Helper()

	// no minimum fee, in-memory data-store
	abciApp, err := GenerateApp(&server.Options{
		MinFee: coin.Coin{},
		Home:   "",
		Logger: log.NewNopLogger(),
		Debug:  false,
	})
	require.NoError(t, err)
	myApp, ok := abciApp.(weaveapp.BaseApp)
	require.True(t, ok)

	appState := fmt.Sprintf(`{
		"cash": [{
			"address": "%s",
			"coins": [{"whole": 50000, "ticker": "DLN"}]
		}],
		"conf": {
			"cash": {
				"collector_address": "3b11c732b8fc1f09beb34031302fe2ab347c5c14",
				"minimal_fee": {}
			},
			"migration": {"admin": "%s"}
		},
		"initialize_schema": [
			{"pkg": "cash", "ver": 1},
			{"pkg": "sigs", "ver": 1},
			{"pkg": "validators", "ver": 1},
			{"pkg": "utils", "ver": 1},
			{"pkg": "deal", "ver": 1}
		]
	}`, genesisAddr, genesisAddr)

	myApp.InitChain(abci.RequestInitChain{
		AppStateBytes: []byte(appState),
		ChainId:       testChainID,
	})
	return myApp
}

// deliverTx signs the transaction, runs a block at the given height and
// time and delivers it.
func deliverTx(t *testing.T, myApp weaveapp.BaseApp, tx *Tx, signer *crypto.PrivateKey, seq int64, height int64, blockTime time.Time) abci.ResponseDeliverTx {
	t.Helper()

	sig, err := sigs.SignTx(signer, tx, testChainID, seq)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}
	txBytes, err := tx.Marshal()
	require.NoError(t, err)

	header := abci.Header{Height: height, ChainID: testChainID, Time: blockTime}
	myApp.BeginBlock(abci.RequestBeginBlock{Header: header})
	dres := myApp.DeliverTx(txBytes)
	myApp.EndBlock(abci.RequestEndBlock{})
	cres := myApp.Commit()
	assert.NotEmpty(t, cres.Data)
	return dres
}

func queryDeal(t *testing.T, myApp weaveapp.BaseApp, id []byte) deal.Deal {
	t.Helper()

	qres := myApp.Query(abci.RequestQuery{Path: "/deals", Data: id})
	require.Equal(t, uint32(0), qres.Code, "%#v", qres)
	require.NotEmpty(t, qres.Value)

	var dl deal.Deal
	require.NoError(t, weaveapp.UnmarshalOneResult(qres.Value, &dl))
	return dl
}

func queryWallet(t *testing.T, myApp weaveapp.BaseApp, addr weave.Address) cash.Set {
	t.Helper()

	qres := myApp.Query(abci.RequestQuery{Path: "/wallets", Data: addr})
	require.Equal(t, uint32(0), qres.Code, "%#v", qres)

	var wallet cash.Set
	if len(qres.Value) > 0 {
		require.NoError(t, weaveapp.UnmarshalOneResult(qres.Value, &wallet))
	}
	return wallet
}

func TestDealLifecycle(t *testing.T) {
	alice := crypto.GenPrivKeyEd25519()
	aliceAddr := alice.PublicKey().Address()
	bob := crypto.GenPrivKeyEd25519()
	bobAddr := bob.PublicKey().Address()

	myApp := newTestApp(t, aliceAddr)

	amount := coin.NewCoin(500, 0, "DLN")
	createTx := &Tx{
		Sum: &Tx_CreateDealMsg{&deal.CreateDealMsg{
			Metadata:    &weave.Metadata{Schema: 1},
			Depositor:   aliceAddr,
			Beneficiary: bobAddr,
			Amount:      &amount,
			Memo:        "500 for bob",
		}},
	}
	dres := deliverTx(t, myApp, createTx, alice, 0, 1, genesisTime)
	require.Equal(t, uint32(0), dres.Code, dres.Log)
	dealID := dres.Data
	assert.Equal(t, weavetest.SequenceID(1), []byte(dealID))

	dl := queryDeal(t, myApp, dealID)
	assert.Equal(t, weave.Address(aliceAddr), dl.Depositor)
	assert.Equal(t, weave.Address(bobAddr), dl.Beneficiary)
	assert.False(t, dl.Settled)
	assert.Equal(t, weave.AsUnixTime(genesisTime), dl.OpenedAt)

	// the deposit left the depositor wallet and sits on the deal account
	aliceWallet := queryWallet(t, myApp, aliceAddr)
	require.Equal(t, 1, len(aliceWallet.Coins))
	assert.Equal(t, int64(49500), aliceWallet.Coins[0].Whole)
	dealWallet := queryWallet(t, myApp, dl.Address)
	require.Equal(t, 1, len(dealWallet.Coins))
	assert.Equal(t, int64(500), dealWallet.Coins[0].Whole)

	// before maturity the beneficiary cannot claim
	releaseTx := &Tx{
		Sum: &Tx_ReleaseDealMsg{&deal.ReleaseDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   dealID,
		}},
	}
	dres = deliverTx(t, myApp, releaseTx, bob, 0, 2, genesisTime.Add(time.Hour))
	assert.NotEqual(t, uint32(0), dres.Code)

	// after maturity the claim goes through
	releaseTx = &Tx{
		Sum: &Tx_ReleaseDealMsg{&deal.ReleaseDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   dealID,
		}},
	}
	dres = deliverTx(t, myApp, releaseTx, bob, 1, 3, genesisTime.Add(73*time.Hour))
	require.Equal(t, uint32(0), dres.Code, dres.Log)

	dl = queryDeal(t, myApp, dealID)
	assert.True(t, dl.Settled)

	bobWallet := queryWallet(t, myApp, bobAddr)
	require.Equal(t, 1, len(bobWallet.Coins))
	assert.Equal(t, int64(500), bobWallet.Coins[0].Whole)
	assert.Equal(t, "DLN", bobWallet.Coins[0].Ticker)

	// a settled deal cannot be claimed twice
	releaseTx = &Tx{
		Sum: &Tx_ReleaseDealMsg{&deal.ReleaseDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   dealID,
		}},
	}
	dres = deliverTx(t, myApp, releaseTx, bob, 2, 4, genesisTime.Add(74*time.Hour))
	assert.NotEqual(t, uint32(0), dres.Code)
}

func TestDealReturn(t *testing.T) {
	alice := crypto.GenPrivKeyEd25519()
	aliceAddr := alice.PublicKey().Address()
	bob := crypto.GenPrivKeyEd25519()
	bobAddr := bob.PublicKey().Address()

	myApp := newTestApp(t, aliceAddr)

	amount := coin.NewCoin(500, 0, "DLN")
	createTx := &Tx{
		Sum: &Tx_CreateDealMsg{&deal.CreateDealMsg{
			Metadata:    &weave.Metadata{Schema: 1},
			Depositor:   aliceAddr,
			Beneficiary: bobAddr,
			Amount:      &amount,
		}},
	}
	dres := deliverTx(t, myApp, createTx, alice, 0, 1, genesisTime)
	require.Equal(t, uint32(0), dres.Code, dres.Log)
	dealID := dres.Data

	// before maturity the depositor can take the funds back
	returnTx := &Tx{
		Sum: &Tx_ReturnDealMsg{&deal.ReturnDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   dealID,
		}},
	}
	dres = deliverTx(t, myApp, returnTx, alice, 1, 2, genesisTime.Add(24*time.Hour))
	require.Equal(t, uint32(0), dres.Code, dres.Log)

	dl := queryDeal(t, myApp, dealID)
	assert.True(t, dl.Settled)

	aliceWallet := queryWallet(t, myApp, aliceAddr)
	require.Equal(t, 1, len(aliceWallet.Coins))
	assert.Equal(t, int64(50000), aliceWallet.Coins[0].Whole)

	// once settled the window argument does not matter any more
	returnTx = &Tx{
		Sum: &Tx_ReturnDealMsg{&deal.ReturnDealMsg{
			Metadata: &weave.Metadata{Schema: 1},
			DealID:   dealID,
		}},
	}
	dres = deliverTx(t, myApp, returnTx, alice, 2, 3, genesisTime.Add(48*time.Hour))
	assert.NotEqual(t, uint32(0), dres.Code)
}
