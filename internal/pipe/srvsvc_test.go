package pipe

import (
	"encoding/binary"
	"testing"
)

func TestBuildShareEnumLevel1ResponseEmpty(t *testing.T) {
	buf := buildShareEnumLevel1Response(nil)
	entriesRead := binary.LittleEndian.Uint32(buf[12:16])
	bufferPtr := binary.LittleEndian.Uint32(buf[16:20])
	if entriesRead != 0 || bufferPtr != 0 {
		t.Errorf("empty share list: entriesRead=%d bufferPtr=%#x, want 0, 0", entriesRead, bufferPtr)
	}
}

func TestAppendNDRStringPads4ByteBoundary(t *testing.T) {
	buf := appendNDRString(nil, "ab")
	if len(buf)%4 != 0 {
		t.Errorf("appendNDRString length %d not 4-byte aligned", len(buf))
	}
	maxCount := binary.LittleEndian.Uint32(buf[0:4])
	if maxCount != 3 { // "ab" + null terminator
		t.Errorf("MaxCount = %d, want 3", maxCount)
	}
}

func TestHandleNetrServerGetInfoReportsServerName(t *testing.T) {
	h := NewSRVSVCHandler("TESTSRV", nil)
	req := &Request{Header: Header{CallID: 3}, ContextID: 0, OpNum: opNetrServerGetInfo}
	out := h.HandleRequest(req)
	hdr, err := ParseHeader(out)
	if err != nil || hdr.PacketType != PDUResponse {
		t.Fatalf("response header = %+v, err %v", hdr, err)
	}
	stub := out[HeaderSize+8:]
	level := binary.LittleEndian.Uint32(stub[0:4])
	if level != 101 {
		t.Errorf("Level = %d, want 101", level)
	}
}

func TestHandleRequestUnknownOpnumReturnsFault(t *testing.T) {
	h := NewSRVSVCHandler("TESTSRV", nil)
	req := &Request{Header: Header{CallID: 4}, OpNum: 999}
	out := h.HandleRequest(req)
	hdr, err := ParseHeader(out)
	if err != nil || hdr.PacketType != PDUFault {
		t.Fatalf("expected fault PDU, got %+v, err %v", hdr, err)
	}
}
