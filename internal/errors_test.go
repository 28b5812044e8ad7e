package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchError(t *testing.T) {
	t.Run("no failures", func(t *testing.T) {
		batch := &BatchError{Action: "uploading style", Total: 2}
		assert.NoError(t, batch.Err())
	})

	t.Run("failures", func(t *testing.T) {
		batch := &BatchError{Action: "uploading style", Total: 3}
		batch.Add("roads", ErrUnauthorized)
		batch.Add("rivers", &HTTPError{Code: 500, Message: "boom"})

		err := batch.Err()
		assert.EqualError(t, err, "uploading style: 2 of 3 failed: roads, rivers")
		assert.True(t, errors.Is(err, ErrUnauthorized))

		var httpErr *HTTPError
		if assert.True(t, errors.As(err, &httpErr)) {
			assert.Equal(t, 500, httpErr.Code)
		}
	})
}
