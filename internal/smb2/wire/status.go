package wire

import "fmt"

// Status is an NT_STATUS code. [MS-ERREF] 2.3
type Status uint32

const (
	StatusSuccess                Status = 0x00000000
	StatusPending                Status = 0x00000103
	StatusMoreProcessingRequired Status = 0xC0000016
	StatusInvalidParameter       Status = 0xC000000D
	StatusNoSuchFile             Status = 0xC000000F
	StatusEndOfFile              Status = 0xC0000011
	StatusMoreEntries            Status = 0x00000105
	StatusNoMoreFiles            Status = 0x80000006
	StatusAccessDenied           Status = 0xC0000022
	StatusBufferOverflow         Status = 0x80000005
	StatusObjectNameInvalid      Status = 0xC0000033
	StatusObjectNameNotFound     Status = 0xC0000034
	StatusObjectNameCollision    Status = 0xC0000035
	StatusObjectPathNotFound     Status = 0xC000003A
	StatusSharingViolation       Status = 0xC0000043
	StatusDeletePending          Status = 0xC0000056
	StatusFileClosed             Status = 0xC0000128
	StatusInvalidHandle          Status = 0xC0000008
	StatusNotSupported           Status = 0xC00000BB
	StatusDirectoryNotEmpty      Status = 0xC0000101
	StatusNotADirectory          Status = 0xC0000103
	StatusFileIsADirectory       Status = 0xC00000BA
	StatusBadNetworkName         Status = 0xC00000CC
	StatusUserSessionDeleted     Status = 0xC0000203
	StatusNetworkSessionExpired  Status = 0xC000035C
	StatusInvalidDeviceRequest   Status = 0xC0000010
	StatusInternalError          Status = 0xC00000E5
	StatusInsufficientResources  Status = 0xC000009A
	StatusRequestNotAccepted     Status = 0xC00000D0
	StatusLogonFailure           Status = 0xC000006D
	StatusPathNotCovered         Status = 0xC0000257
	StatusNetworkNameDeleted     Status = 0xC00000C9
	StatusInvalidInfoClass       Status = 0xC0000003
	StatusBufferTooSmall         Status = 0xC0000023
	StatusCancelled              Status = 0xC0000120

	// Additional codes needed by lock/oplock/ioctl handling that the
	// teacher's older generation never names.
	StatusNoMemory               Status = 0xC0000017
	StatusLockNotGranted         Status = 0xC0000055
	StatusFileLockConflict       Status = 0xC0000054
	StatusRangeNotLocked         Status = 0xC000007E
	StatusInvalidLockRange       Status = 0xC00001A1
	StatusInvalidOplockProtocol  Status = 0xC00000E2
	StatusInvalidDeviceState     Status = 0xC0000184
	StatusEasNotSupported        Status = 0xC000004F
	StatusInfoLengthMismatch     Status = 0xC0000004
	StatusNotImplemented         Status = 0xC0000002
	StatusIoTimeout              Status = 0xC00000B5
	StatusOplockNotGranted       Status = 0xC00000E2
	StatusSmbBadTid              Status = 0xC00000C9
	StatusNetworkAccessDenied    Status = 0xC00000CA
	StatusNotFound               Status = 0xC0000225
	StatusDuplicateName          Status = 0xC00000BD
	StatusObjectNameExists       Status = 0xC0000035
	StatusWrongPassword          Status = 0xC000006A
	StatusNoSuchUser             Status = 0xC0000064
	StatusDataError              Status = 0xC000009C
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "STATUS_SUCCESS"
	case StatusPending:
		return "STATUS_PENDING"
	case StatusMoreProcessingRequired:
		return "STATUS_MORE_PROCESSING_REQUIRED"
	case StatusInvalidParameter:
		return "STATUS_INVALID_PARAMETER"
	case StatusNoSuchFile:
		return "STATUS_NO_SUCH_FILE"
	case StatusEndOfFile:
		return "STATUS_END_OF_FILE"
	case StatusMoreEntries:
		return "STATUS_MORE_ENTRIES"
	case StatusNoMoreFiles:
		return "STATUS_NO_MORE_FILES"
	case StatusAccessDenied:
		return "STATUS_ACCESS_DENIED"
	case StatusBufferOverflow:
		return "STATUS_BUFFER_OVERFLOW"
	case StatusObjectNameInvalid:
		return "STATUS_OBJECT_NAME_INVALID"
	case StatusObjectNameNotFound:
		return "STATUS_OBJECT_NAME_NOT_FOUND"
	case StatusObjectNameCollision:
		return "STATUS_OBJECT_NAME_COLLISION"
	case StatusObjectPathNotFound:
		return "STATUS_OBJECT_PATH_NOT_FOUND"
	case StatusSharingViolation:
		return "STATUS_SHARING_VIOLATION"
	case StatusDeletePending:
		return "STATUS_DELETE_PENDING"
	case StatusFileClosed:
		return "STATUS_FILE_CLOSED"
	case StatusInvalidHandle:
		return "STATUS_INVALID_HANDLE"
	case StatusNotSupported:
		return "STATUS_NOT_SUPPORTED"
	case StatusDirectoryNotEmpty:
		return "STATUS_DIRECTORY_NOT_EMPTY"
	case StatusNotADirectory:
		return "STATUS_NOT_A_DIRECTORY"
	case StatusFileIsADirectory:
		return "STATUS_FILE_IS_A_DIRECTORY"
	case StatusBadNetworkName:
		return "STATUS_BAD_NETWORK_NAME"
	case StatusUserSessionDeleted:
		return "STATUS_USER_SESSION_DELETED"
	case StatusNetworkSessionExpired:
		return "STATUS_NETWORK_SESSION_EXPIRED"
	case StatusInvalidDeviceRequest:
		return "STATUS_INVALID_DEVICE_REQUEST"
	case StatusInternalError:
		return "STATUS_INTERNAL_ERROR"
	case StatusInsufficientResources:
		return "STATUS_INSUFFICIENT_RESOURCES"
	case StatusRequestNotAccepted:
		return "STATUS_REQUEST_NOT_ACCEPTED"
	case StatusLogonFailure:
		return "STATUS_LOGON_FAILURE"
	case StatusPathNotCovered:
		return "STATUS_PATH_NOT_COVERED"
	case StatusNetworkNameDeleted:
		return "STATUS_NETWORK_NAME_DELETED"
	case StatusInvalidInfoClass:
		return "STATUS_INVALID_INFO_CLASS"
	case StatusBufferTooSmall:
		return "STATUS_BUFFER_TOO_SMALL"
	case StatusCancelled:
		return "STATUS_CANCELLED"
	case StatusNoMemory:
		return "STATUS_NO_MEMORY"
	case StatusLockNotGranted:
		return "STATUS_LOCK_NOT_GRANTED"
	case StatusFileLockConflict:
		return "STATUS_FILE_LOCK_CONFLICT"
	case StatusRangeNotLocked:
		return "STATUS_RANGE_NOT_LOCKED"
	case StatusInvalidLockRange:
		return "STATUS_INVALID_LOCK_RANGE"
	case StatusInvalidOplockProtocol:
		return "STATUS_INVALID_OPLOCK_PROTOCOL"
	case StatusInvalidDeviceState:
		return "STATUS_INVALID_DEVICE_STATE"
	case StatusEasNotSupported:
		return "STATUS_EAS_NOT_SUPPORTED"
	case StatusInfoLengthMismatch:
		return "STATUS_INFO_LENGTH_MISMATCH"
	case StatusNotImplemented:
		return "STATUS_NOT_IMPLEMENTED"
	case StatusIoTimeout:
		return "STATUS_IO_TIMEOUT"
	case StatusNetworkAccessDenied:
		return "STATUS_NETWORK_ACCESS_DENIED"
	case StatusNotFound:
		return "STATUS_NOT_FOUND"
	case StatusDuplicateName:
		return "STATUS_DUPLICATE_NAME"
	case StatusWrongPassword:
		return "STATUS_WRONG_PASSWORD"
	case StatusNoSuchUser:
		return "STATUS_NO_SUCH_USER"
	case StatusDataError:
		return "STATUS_DATA_ERROR"
	default:
		return fmt.Sprintf("STATUS_0x%08X", uint32(s))
	}
}

// IsSuccess reports whether status has its high bit clear (success or
// informational). [MS-ERREF] 2.3.1
func (s Status) IsSuccess() bool { return s == StatusSuccess || uint32(s)&0x80000000 == 0 }

// IsError reports whether the top two bits are set (0xC...).
func (s Status) IsError() bool { return uint32(s)&0xC0000000 == 0xC0000000 }

// IsWarning reports whether bit 31 is set but bit 30 is clear (0x8...).
func (s Status) IsWarning() bool { return uint32(s)&0xC0000000 == 0x80000000 }

// Error implements the error interface so a Status can be returned
// directly from handler code and compared with errors.Is.
func (s Status) Error() string { return s.String() }
