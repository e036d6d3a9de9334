package pipe

import (
	"encoding/binary"
	"testing"
)

func TestIsSupportedPipe(t *testing.T) {
	cases := map[string]bool{
		"srvsvc":       true,
		`\srvsvc`:      true,
		`\PIPE\srvsvc`: true,
		"SRVSVC":       true,
		"lsarpc":       false,
		"notapipe":     false,
	}
	for name, want := range cases {
		if got := IsSupportedPipe(name); got != want {
			t.Errorf("IsSupportedPipe(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestManagerOpenGetClose(t *testing.T) {
	m := NewManager("TESTSRV", func() []ShareInfo1 { return nil })
	st := m.Open(1, "srvsvc")
	if st == nil {
		t.Fatal("Open returned nil")
	}
	if got, ok := m.Get(1); !ok || got != st {
		t.Errorf("Get(1) = %v, %v", got, ok)
	}
	m.Close(1)
	if _, ok := m.Get(1); ok {
		t.Error("Get after Close should miss")
	}
}

func TestStateTransactBindThenShareEnum(t *testing.T) {
	shares := []ShareInfo1{{Name: "data", Type: STypeDiskTree, Comment: ""}, {Name: "IPC$", Type: STypeIPC | STypeSpecial}}
	m := NewManager("TESTSRV", func() []ShareInfo1 { return shares })
	st := m.Open(7, "srvsvc")

	bindOut, err := st.Transact(encodeBindRequest(1), 0)
	if err != nil {
		t.Fatalf("Transact(bind): %v", err)
	}
	bindHdr, err := ParseHeader(bindOut)
	if err != nil || bindHdr.PacketType != PDUBindAck {
		t.Fatalf("bind response header = %+v, err %v", bindHdr, err)
	}

	reqBuf := encodeShareEnumRequest(2)
	out, err := st.Transact(reqBuf, 65536)
	if err != nil {
		t.Fatalf("Transact(NetrShareEnum): %v", err)
	}
	respHdr, err := ParseHeader(out)
	if err != nil || respHdr.PacketType != PDUResponse {
		t.Fatalf("share enum response header = %+v, err %v", respHdr, err)
	}

	stub := out[HeaderSize+8:]
	entriesRead := binary.LittleEndian.Uint32(stub[12:16])
	if entriesRead != uint32(len(shares)) {
		t.Errorf("EntriesRead = %d, want %d", entriesRead, len(shares))
	}
	status := binary.LittleEndian.Uint32(stub[len(stub)-4:])
	if status != nerrSuccess {
		t.Errorf("status = %#x, want success", status)
	}
}

func TestStateRequestBeforeBindIsIgnored(t *testing.T) {
	m := NewManager("TESTSRV", func() []ShareInfo1 { return nil })
	st := m.Open(1, "srvsvc")
	out, err := st.Transact(encodeShareEnumRequest(1), 0)
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if out != nil {
		t.Errorf("unbound request should produce no response, got %d bytes", len(out))
	}
}

// encodeShareEnumRequest builds a minimal NetrShareEnum Request PDU
// whose stub carries a null server name pointer and info level 1;
// handleNetrShareEnum answers at level 1 without reading the stub.
func encodeShareEnumRequest(callID uint32) []byte {
	stub := make([]byte, 8)
	binary.LittleEndian.PutUint32(stub[4:8], 1) // level 1

	fragLen := HeaderSize + 8 + len(stub)
	buf := make([]byte, fragLen)
	hdr := Header{VersionMajor: 5, PacketType: PDURequest, Flags: FlagFirstFrag | FlagLastFrag, DataRep: defaultDataRep(), FragLength: uint16(fragLen), CallID: callID}
	copy(buf[0:16], hdr.Encode())
	binary.LittleEndian.PutUint16(buf[22:24], opNetrShareEnum)
	copy(buf[24:], stub)
	return buf
}
