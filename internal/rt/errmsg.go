package rt

import "fmt"

// Stat codes returned by the allocation entry points. Zero is success; the
// named failure codes are disjoint from it and stable across releases
// because generated code tests them.
const (
	StatOK           = 0
	StatGenericError = 1

	StatAlreadyAllocated        = 101
	StatLengthParameterMismatch = 102
	StatNotAllocated            = 103
	StatInvalidDescriptor       = 104
)

func statMessage(stat int) string {
	switch stat {
	case StatAlreadyAllocated:
		return "object in allocation request is already allocated"
	case StatLengthParameterMismatch:
		return "explicit length type parameter value mismatch"
	case StatNotAllocated:
		return "object in deallocation request is not allocated"
	case StatInvalidDescriptor:
		return "descriptor does not admit the requested operation"
	default:
		return "generic error"
	}
}

// StatAndErrMsg records the stock message for stat in the caller's error
// message descriptor, when one was supplied, and returns stat.
func StatAndErrMsg(errMsg *Descriptor, stat int) int {
	return StatAndErrMsgf(errMsg, stat, "%s", statMessage(stat))
}

// StatAndErrMsgf is StatAndErrMsg with caller-formatted text. The message
// is written into the character storage described by errMsg, truncated or
// blank padded to its element length.
func StatAndErrMsgf(errMsg *Descriptor, stat int, format string, args ...any) int {
	if errMsg == nil || errMsg.data == nil {
		return stat
	}
	text := fmt.Sprintf(format, args...)
	length := int(errMsg.elemBytes)
	if length > len(errMsg.data) {
		length = len(errMsg.data)
	}
	n := copy(errMsg.data[:length], text)
	for ; n < length; n++ {
		errMsg.data[n] = ' '
	}
	return stat
}
