package pipe

import "testing"

func encodeBindRequest(callID uint32) []byte {
	const fragLen = 72
	buf := make([]byte, fragLen)
	hdr := Header{
		VersionMajor: 5,
		PacketType:   PDUBind,
		Flags:        FlagFirstFrag | FlagLastFrag,
		DataRep:      defaultDataRep(),
		FragLength:   fragLen,
		CallID:       callID,
	}
	copy(buf[0:16], hdr.Encode())
	// MaxXmitFrag/MaxRecvFrag/AssocGroupID/NumContexts + padding, one context with one transfer syntax.
	buf[24] = 1 // num contexts
	copy(buf[32:48], srvsvcInterfaceUUID[:])
	buf[30] = 1 // num transfer syntax
	copy(buf[52:68], ndrTransferSyntaxUUID[:])
	return buf
}

func TestParseHeaderRoundTrip(t *testing.T) {
	hdr := Header{VersionMajor: 5, PacketType: PDURequest, Flags: FlagFirstFrag | FlagLastFrag, DataRep: defaultDataRep(), FragLength: 24, CallID: 7}
	got, err := ParseHeader(hdr.Encode())
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got.PacketType != PDURequest || got.CallID != 7 || got.FragLength != 24 {
		t.Errorf("ParseHeader round trip = %+v", got)
	}
}

func TestParseBindRequest(t *testing.T) {
	data := encodeBindRequest(42)
	req, err := ParseBindRequest(data)
	if err != nil {
		t.Fatalf("ParseBindRequest: %v", err)
	}
	if req.Header.CallID != 42 {
		t.Errorf("CallID = %d, want 42", req.Header.CallID)
	}
	if len(req.ContextList) != 1 || len(req.ContextList[0].TransferSyntaxes) != 1 {
		t.Fatalf("ContextList = %+v", req.ContextList)
	}
	if req.ContextList[0].TransferSyntaxes[0].UUID != ndrTransferSyntaxUUID {
		t.Error("parsed transfer syntax UUID mismatch")
	}
}

func TestBindAckEncodeParseableHeader(t *testing.T) {
	ack := &BindAck{
		MaxXmitFrag: 4280, MaxRecvFrag: 4280, AssocGroupID: 1, SecAddr: `\PIPE\srvsvc`,
		Results: []ContextResult{{TransferSyntax: SyntaxID{UUID: ndrTransferSyntaxUUID, Version: 2}}},
	}
	buf := ack.Encode(42)
	hdr, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.PacketType != PDUBindAck || hdr.CallID != 42 || int(hdr.FragLength) != len(buf) {
		t.Errorf("bind ack header = %+v, buf len %d", hdr, len(buf))
	}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	stub := []byte{1, 2, 3, 4}
	const fragLen = HeaderSize + 8 + 4
	buf := make([]byte, fragLen)
	hdr := Header{VersionMajor: 5, PacketType: PDURequest, Flags: FlagFirstFrag | FlagLastFrag, DataRep: defaultDataRep(), FragLength: fragLen, CallID: 99}
	copy(buf[0:16], hdr.Encode())
	buf[22] = 15 // opnum low byte
	copy(buf[24:], stub)

	req, err := ParseRequest(buf)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.OpNum != 15 || string(req.StubData) != string(stub) {
		t.Errorf("ParseRequest = %+v", req)
	}

	resp := &Response{ContextID: req.ContextID, StubData: []byte("ok")}
	out := resp.Encode(req.Header.CallID)
	respHdr, err := ParseHeader(out)
	if err != nil {
		t.Fatalf("ParseHeader(response): %v", err)
	}
	if respHdr.PacketType != PDUResponse || respHdr.CallID != 99 {
		t.Errorf("response header = %+v", respHdr)
	}
}

func TestBuildFaultHasFaultPacketType(t *testing.T) {
	out := buildFault(5, 0, ncaOpRngError)
	hdr, err := ParseHeader(out)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.PacketType != PDUFault {
		t.Errorf("PacketType = %d, want PDUFault", hdr.PacketType)
	}
}
