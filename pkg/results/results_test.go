package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := SuccessResult[int, error](42)
		assert.True(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
		assert.Equal(t, 42, *r.Success)
	})

	t.Run("failure", func(t *testing.T) {
		r := FailureResult[int, error](errors.New("nope"))
		assert.False(t, r.IsSuccess())
		assert.True(t, r.IsFailure())
		assert.EqualError(t, *r.Failure, "nope")
	})

	t.Run("zero value is neither", func(t *testing.T) {
		var r OperationResult[int, error]
		assert.False(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
	})
}

func TestMap(t *testing.T) {
	double := func(v int) int { return v * 2 }

	assert.Equal(t, 8, *Map(SuccessResult[int, error](4), double).Success)

	failed := Map(FailureResult[int, error](errors.New("x")), double)
	assert.True(t, failed.IsFailure())
	assert.Nil(t, failed.Success)

	empty := Map(OperationResult[int, error]{}, double)
	assert.False(t, empty.IsSuccess())
}
