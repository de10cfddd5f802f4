package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("missing credentials"), "set ARIBA_LOGIN in .env")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "set ARIBA_LOGIN in .env", hints[0])
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNoFilesError(nil))
}

func TestSentinels(t *testing.T) {
	t.Run("not found survives wrapping", func(t *testing.T) {
		err := Wrap(NewNotFoundError("contract %s", "CW123"), "open")
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsNoFilesError(err))
		assert.Contains(t, err.Error(), "CW123")
	})

	t.Run("no files survives wrapping", func(t *testing.T) {
		err := Wrap(NewNoFilesError("contract %s", "CW9"), "download")
		assert.True(t, IsNoFilesError(err))
		assert.False(t, IsNotFoundError(err))
	})

	t.Run("plain errors match nothing", func(t *testing.T) {
		err := New("table never loaded")
		assert.False(t, IsNotFoundError(err))
		assert.False(t, IsNoFilesError(err))
		assert.False(t, Is(err, ErrSessionLost))
	})
}

func ExampleWrap() {
	baseErr := New("connection failed")
	err := Wrap(baseErr, "failed to open database")
	fmt.Println(err)
	// Output: failed to open database: connection failed
}
