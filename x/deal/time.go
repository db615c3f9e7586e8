package deal

import (
	"time"

	"github.com/iov-one/weave"
)

// maturityPeriod is the time that must pass after a deal was opened before
// the beneficiary may release it. Until then only the depositor may return
// it. This is a protocol constant, not configuration.
const maturityPeriod = 72 * time.Hour

// maturesAt returns the first moment at which a deal opened at the given
// time can be released.
func maturesAt(openedAt weave.UnixTime) weave.UnixTime {
	return openedAt.Add(maturityPeriod)
}

// isMature returns true if the maturity period of a deal opened at the given
// time has elapsed as compared to the "now" as declared for the block. The
// boundary is inclusive, meaning that at the exact maturity instant the deal
// is mature and belongs to the release path, not the return path.
//
// This function panics if the block time is not provided in the context.
// This must never happen. The panic is here to prevent a broken setup from
// processing data incorrectly.
func isMature(ctx weave.Context, openedAt weave.UnixTime) bool {
	blockNow, err := weave.BlockTime(ctx)
	if err != nil {
		panic("block time is not present")
	}
	return maturesAt(openedAt) <= weave.AsUnixTime(blockNow)
}
