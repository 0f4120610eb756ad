package lifecycle

import (
	"time"

	"github.com/crewhub/crewhub/pkg/types"
)

const day = 24 * time.Hour

// ResendLimit 邀请重发次数上限，达到后不再允许 resend
const ResendLimit = 5

var resendWindows = []time.Duration{
	3 * day, // 首次重发
	7 * day,
	7 * day,
	7 * day,
}

// ResendWindow 根据重发前的计数返回下一次允许重发的冷却窗口。
// 超出窗口表的计数统一落入一年的长冷却。
func ResendWindow(resendCount int) time.Duration {
	if resendCount < 0 {
		resendCount = 0
	}
	if resendCount < len(resendWindows) {
		return resendWindows[resendCount]
	}
	return 365 * day
}

// RejectionWindow 拒绝后的冷却窗口。
// 申请首次被拒 7 天，再次被拒 30 天；邀请被拒固定 14 天。
// rejectionCount 为含本次在内的累计被拒次数。
func RejectionWindow(direction types.RequestDirection, rejectionCount int) time.Duration {
	if direction == types.REQUEST_DIRECTION_INVITE {
		return 14 * day
	}
	if rejectionCount <= 1 {
		return 7 * day
	}
	return 30 * day
}

// CancelWindow 撤销后的冷却窗口，两个方向一致。
func CancelWindow(direction types.RequestDirection) time.Duration {
	return 7 * day
}
