package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crewhub/crewhub/pkg/types"
)

func TestResendWindow(t *testing.T) {
	assert.Equal(t, 3*24*time.Hour, ResendWindow(0))
	assert.Equal(t, 7*24*time.Hour, ResendWindow(1))
	assert.Equal(t, 7*24*time.Hour, ResendWindow(2))
	assert.Equal(t, 7*24*time.Hour, ResendWindow(3))
	assert.Equal(t, 365*24*time.Hour, ResendWindow(4))
	assert.Equal(t, 365*24*time.Hour, ResendWindow(10))
	assert.Equal(t, 3*24*time.Hour, ResendWindow(-1))
}

func TestRejectionWindow(t *testing.T) {
	assert.Equal(t, 14*24*time.Hour, RejectionWindow(types.REQUEST_DIRECTION_INVITE, 1))
	assert.Equal(t, 14*24*time.Hour, RejectionWindow(types.REQUEST_DIRECTION_INVITE, 5))
	assert.Equal(t, 7*24*time.Hour, RejectionWindow(types.REQUEST_DIRECTION_APPLICATION, 1))
	assert.Equal(t, 30*24*time.Hour, RejectionWindow(types.REQUEST_DIRECTION_APPLICATION, 2))
	assert.Equal(t, 30*24*time.Hour, RejectionWindow(types.REQUEST_DIRECTION_APPLICATION, 3))
}

func TestCancelWindow(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, CancelWindow(types.REQUEST_DIRECTION_INVITE))
	assert.Equal(t, 7*24*time.Hour, CancelWindow(types.REQUEST_DIRECTION_APPLICATION))
}
