package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for SMB2 request spans.
const (
	AttrClientIP     = "client.ip"
	AttrClientAddr   = "client.address"
	AttrSMBCommand   = "smb.command"
	AttrSMBMessageID = "smb.message_id"
	AttrSMBSessionID = "smb.session_id"
	AttrSMBTreeID    = "smb.tree_id"
	AttrSMBFileID    = "smb.file_id"
	AttrShare        = "fs.share"
	AttrPath         = "fs.path"
	AttrStatus       = "fs.status"
	AttrUsername     = "user.name"
	AttrDomain       = "user.domain"
	AttrAuth         = "auth.method"
	AttrBucket       = "storage.bucket"
	AttrKey          = "storage.key"
)

// Span names for dispatch-level spans.
const (
	SpanSMBRequest    = "smb.request"
	SpanSMBNegotiate  = "smb.NEGOTIATE"
	SpanSMBSessionSet = "smb.SESSION_SETUP"
	SpanSMBTreeConn   = "smb.TREE_CONNECT"
	SpanSMBCreate     = "smb.CREATE"
	SpanSMBClose      = "smb.CLOSE"
	SpanSMBRead       = "smb.READ"
	SpanSMBWrite      = "smb.WRITE"
	SpanSMBQueryDir   = "smb.QUERY_DIRECTORY"
	SpanSMBQueryInfo  = "smb.QUERY_INFO"
	SpanSMBSetInfo    = "smb.SET_INFO"
)

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

func SMBCommand(name string) attribute.KeyValue {
	return attribute.String(AttrSMBCommand, name)
}

func SMBMessageID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSMBMessageID, int64(id))
}

func SMBSessionID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSMBSessionID, int64(id))
}

func SMBTreeID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrSMBTreeID, int64(id))
}

func FSShare(share string) attribute.KeyValue {
	return attribute.String(AttrShare, share)
}

func FSPath(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

func FSStatus(status string) attribute.KeyValue {
	return attribute.String(AttrStatus, status)
}

func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

func Domain(name string) attribute.KeyValue {
	return attribute.String(AttrDomain, name)
}

func AuthMethod(method string) attribute.KeyValue {
	return attribute.String(AttrAuth, method)
}

func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartSMBSpan starts a span for one SMB2 command, tagging it with the
// command name and, when known, the session/tree it ran under.
func StartSMBSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{SMBCommand(command)}, attrs...)
	return StartSpan(ctx, "smb."+command, trace.WithAttributes(allAttrs...))
}
