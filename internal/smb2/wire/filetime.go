package wire

import "time"

// filetimeUnixDiff is the number of 100ns intervals between the Windows
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const filetimeUnixDiff = 116444736000000000

// TimeToFiletime converts a Go time to a Windows FILETIME: the count of
// 100-nanosecond intervals since 1601-01-01 UTC used by every SMB2
// timestamp field. [MS-DTYP] 2.3.3
func TimeToFiletime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano()/100) + filetimeUnixDiff
}

// FiletimeToTime converts a Windows FILETIME back to a Go time.
func FiletimeToTime(ft uint64) time.Time {
	if ft == 0 || ft < filetimeUnixDiff {
		return time.Time{}
	}
	return time.Unix(0, int64(ft-filetimeUnixDiff)*100)
}
