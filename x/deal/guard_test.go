package deal

import (
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestGuardRejectsNestedEntry(t *testing.T) {
	var g guard

	res, err := g.guarded(func() (*weave.DeliverResult, error) {
		_, nested := g.guarded(func() (*weave.DeliverResult, error) {
			t.Fatal("nested delivery must not run")
			return nil, nil
		})
		assert.IsErr(t, ErrReentrantCall, nested)
		return &weave.DeliverResult{}, nil
	})
	assert.Nil(t, err)
	if res == nil {
		t.Fatal("expected a result from the outer delivery")
	}
}

func TestGuardReleasesAfterFailure(t *testing.T) {
	var g guard

	_, err := g.guarded(func() (*weave.DeliverResult, error) {
		return nil, ErrAlreadySettled
	})
	assert.IsErr(t, ErrAlreadySettled, err)

	// a failed delivery must not leave the latch closed
	_, err = g.guarded(func() (*weave.DeliverResult, error) {
		return &weave.DeliverResult{}, nil
	})
	assert.Nil(t, err)
}
