package deal

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
	"github.com/iov-one/weave/x/cash"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	// pay deal creation cost up-front
	createDealCost  int64 = 300
	releaseDealCost int64 = 0
	returnDealCost  int64 = 0
)

const (
	tagDealID      = "deal-id"
	tagDepositor   = "depositor"
	tagBeneficiary = "beneficiary"
	tagAmount      = "amount"
	tagAction      = "action"
)

// RegisterRoutes will instantiate and register
// all handlers in this package.
//
// All handlers share a single re-entrancy latch, so a coin mover calling
// back into any deal operation while a delivery is running is rejected.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl cash.Controller) {
	r = migration.SchemaMigratingRegistry("deal", r)
	bucket := NewBucket()
	g := &guard{}

	r.Handle(&CreateDealMsg{}, CreateDealHandler{auth: auth, bucket: bucket, ctrl: ctrl, guard: g})
	r.Handle(&ReleaseDealMsg{}, ReleaseDealHandler{auth: auth, bucket: bucket, ctrl: ctrl, guard: g})
	r.Handle(&ReturnDealMsg{}, ReturnDealHandler{auth: auth, bucket: bucket, ctrl: ctrl, guard: g})
}

// RegisterQuery will register this bucket as "/deals"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("deals", qr)
}

// CreateDealHandler opens a new deal and funds its account.
type CreateDealHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
	guard  *guard
}

var _ weave.Handler = CreateDealHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h CreateDealHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	res := &weave.CheckResult{
		GasAllocated: createDealCost,
	}
	return res, nil
}

// Deliver creates the deal and moves the tokens from the depositor to the
// deal account if all preconditions are met. The whole operation is rolled
// back by the savepoint when any step fails, so a failed creation consumes
// no deal identifier.
func (h CreateDealHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return h.guard.guarded(func() (*weave.DeliverResult, error) {
		return h.deliver(ctx, db, tx)
	})
}

func (h CreateDealHandler) deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// apply a default for depositor
	depositor := msg.Depositor
	if depositor == nil {
		depositor = x.AnySigner(ctx, h.auth).Address()
	}

	blockNow, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, "block time not present")
	}

	key, err := dealSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}

	dl := &Deal{
		Metadata:    &weave.Metadata{Schema: 1},
		Depositor:   depositor,
		Beneficiary: msg.Beneficiary,
		Amount:      msg.Amount,
		OpenedAt:    weave.AsUnixTime(blockNow),
		Settled:     false,
		Address:     Condition(key).Address(),
		Memo:        msg.Memo,
	}
	if _, err := h.bucket.Put(db, key, dl); err != nil {
		return nil, errors.Wrap(err, "cannot store deal")
	}

	prior, err := accountBalance(h.ctrl, db, dl.Address)
	if err != nil {
		return nil, err
	}

	// Deposit to the deal account.
	if err := cash.MoveCoins(db, h.ctrl, dl.Depositor, dl.Address, []*coin.Coin{dl.Amount}); err != nil {
		return nil, err
	}

	// The deal is only open once the account truly holds the declared
	// amount on top of whatever it held before. Anything less is a
	// shortfall and aborts the creation.
	was := coin.Coin{Ticker: dl.Amount.Ticker}
	for _, c := range prior {
		if c.Ticker == dl.Amount.Ticker {
			was = *c
		}
	}
	expected, err := was.Add(*dl.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "cannot compute expected balance")
	}
	funded, err := accountBalance(h.ctrl, db, dl.Address)
	if err != nil {
		return nil, err
	}
	if !funded.Contains(expected) {
		return nil, errors.Wrapf(ErrTransferShortfall, "deal account holds %s, expected %s", funded, expected)
	}

	res := &weave.DeliverResult{Data: key}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte(tagDealID), Value: key},
		{Key: []byte(tagDepositor), Value: dl.Depositor},
		{Key: []byte(tagBeneficiary), Value: dl.Beneficiary},
		{Key: []byte(tagAmount), Value: []byte(dl.Amount.String())},
		{Key: []byte(tagAction), Value: []byte("deposited")},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateDealHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateDealMsg, error) {
	var msg CreateDealMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// Depositor must authorize this (if not set, defaults to MainSigner).
	if msg.Depositor != nil {
		if !h.auth.HasAddress(ctx, msg.Depositor) {
			return nil, errors.ErrUnauthorized
		}
	}

	return &msg, nil
}

// ReleaseDealHandler pays a matured deal out to its beneficiary.
type ReleaseDealHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
	guard  *guard
}

var _ weave.Handler = ReleaseDealHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ReleaseDealHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	return &weave.CheckResult{GasAllocated: releaseDealCost}, nil
}

// Deliver settles the deal and moves the tokens from the deal account to the
// beneficiary if all preconditions are met. The deal record is kept.
func (h ReleaseDealHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return h.guard.guarded(func() (*weave.DeliverResult, error) {
		return h.deliver(ctx, db, tx)
	})
}

func (h ReleaseDealHandler) deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, dl, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Settle before moving any coins. The transfer reaches out to an
	// external account state, the deal must already be terminal when
	// that happens.
	dl.Settled = true
	if _, err := h.bucket.Put(db, msg.DealID, dl); err != nil {
		return nil, errors.Wrap(err, "cannot save deal")
	}

	if err := cash.MoveCoins(db, h.ctrl, dl.Address, dl.Beneficiary, []*coin.Coin{dl.Amount}); err != nil {
		return nil, err
	}

	res := &weave.DeliverResult{Data: msg.DealID}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte(tagDealID), Value: msg.DealID},
		{Key: []byte(tagBeneficiary), Value: dl.Beneficiary},
		{Key: []byte(tagAmount), Value: []byte(dl.Amount.String())},
		{Key: []byte(tagAction), Value: []byte("claimed")},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ReleaseDealHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ReleaseDealMsg, *Deal, error) {
	var msg ReleaseDealMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var dl Deal
	if err := h.bucket.One(db, msg.DealID, &dl); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load deal from the store")
	}

	if dl.Settled {
		return nil, nil, errors.Wrapf(ErrAlreadySettled, "deal %X", msg.DealID)
	}

	// Only the beneficiary may release.
	if !h.auth.HasAddress(ctx, dl.Beneficiary) {
		return nil, nil, errors.Wrapf(ErrNotBeneficiary, "deal %X", msg.DealID)
	}

	if !isMature(ctx, dl.OpenedAt) {
		return nil, nil, errors.Wrapf(ErrStillLocked, "deal matures at %s", maturesAt(dl.OpenedAt))
	}

	return &msg, &dl, nil
}

// ReturnDealHandler gives the locked tokens back to the depositor.
type ReturnDealHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
	guard  *guard
}

var _ weave.Handler = ReturnDealHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h ReturnDealHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	_, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	return &weave.CheckResult{GasAllocated: returnDealCost}, nil
}

// Deliver settles the deal and moves the tokens from the deal account back
// to the depositor if all preconditions are met. The deal record is kept.
func (h ReturnDealHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return h.guard.guarded(func() (*weave.DeliverResult, error) {
		return h.deliver(ctx, db, tx)
	})
}

func (h ReturnDealHandler) deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, dl, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Settle before moving any coins, same as on release.
	dl.Settled = true
	if _, err := h.bucket.Put(db, msg.DealID, dl); err != nil {
		return nil, errors.Wrap(err, "cannot save deal")
	}

	if err := cash.MoveCoins(db, h.ctrl, dl.Address, dl.Depositor, []*coin.Coin{dl.Amount}); err != nil {
		return nil, err
	}

	res := &weave.DeliverResult{Data: msg.DealID}
	res.Tags = append(res.Tags, []common.KVPair{
		{Key: []byte(tagDealID), Value: msg.DealID},
		{Key: []byte(tagDepositor), Value: dl.Depositor},
		{Key: []byte(tagAmount), Value: []byte(dl.Amount.String())},
		{Key: []byte(tagAction), Value: []byte("reclaimed")},
	}...)
	return res, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ReturnDealHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ReturnDealMsg, *Deal, error) {
	var msg ReturnDealMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var dl Deal
	if err := h.bucket.One(db, msg.DealID, &dl); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load deal from the store")
	}

	if dl.Settled {
		return nil, nil, errors.Wrapf(ErrAlreadySettled, "deal %X", msg.DealID)
	}

	// Only the depositor may return.
	if !h.auth.HasAddress(ctx, dl.Depositor) {
		return nil, nil, errors.Wrapf(ErrNotDepositor, "deal %X", msg.DealID)
	}

	if isMature(ctx, dl.OpenedAt) {
		return nil, nil, errors.Wrapf(ErrWindowClosed, "deal matured at %s", maturesAt(dl.OpenedAt))
	}

	return &msg, &dl, nil
}

// accountBalance returns the coins held by the given account. An account
// that was never funded holds no coins, which is not an error here.
func accountBalance(ctrl cash.Controller, db weave.KVStore, addr weave.Address) (coin.Coins, error) {
	cs, err := ctrl.Balance(db, addr)
	switch {
	case err == nil:
		return cs, nil
	case errors.ErrEmpty.Is(err) || errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrap(err, "cannot get balance")
	}
}
