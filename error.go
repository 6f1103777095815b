package hdrcounts

import "fmt"

type StoreError uint32

const (
	ErrOutOfRange StoreError = iota + 1
	ErrTruncatedBuffer
	ErrBufferOverflow
	ErrIncompatibleConfiguration
	ErrInvalidCookie
)

func (e StoreError) Error() string {
	switch e {
	case ErrOutOfRange:
		return "hdrcounts: index out of range"
	case ErrTruncatedBuffer:
		return "hdrcounts: truncated buffer"
	case ErrBufferOverflow:
		return "hdrcounts: buffer too small"
	case ErrIncompatibleConfiguration:
		return "hdrcounts: incompatible configuration"
	case ErrInvalidCookie:
		return "hdrcounts: invalid encoding cookie"
	default:
		return fmt.Sprintf("StoreError(%d)", e)
	}
}
