// Package wire implements the SMB2/SMB3 wire codec: the fixed-layout
// little-endian header, NetBIOS session-service framing, UTF-16LE string
// conversion, and the protocol constant tables used throughout the
// dialect engine. See [MS-SMB2] for the on-wire definitions.
package wire

// Protocol identifiers. Every SMB2/3 message begins with one of these
// 4-byte signatures (little-endian on the wire).
const (
	SMB1ProtocolID uint32 = 0x424D53FF // 0xFF 'S' 'M' 'B'
	SMB2ProtocolID uint32 = 0x424D53FE // 0xFE 'S' 'M' 'B'
)

// Command is an SMB2 command code. [MS-SMB2] 2.2.1
type Command uint16

const (
	CommandNegotiate       Command = 0x0000
	CommandSessionSetup    Command = 0x0001
	CommandLogoff          Command = 0x0002
	CommandTreeConnect     Command = 0x0003
	CommandTreeDisconnect  Command = 0x0004
	CommandCreate          Command = 0x0005
	CommandClose           Command = 0x0006
	CommandFlush           Command = 0x0007
	CommandRead            Command = 0x0008
	CommandWrite           Command = 0x0009
	CommandLock            Command = 0x000A
	CommandIoctl           Command = 0x000B
	CommandCancel          Command = 0x000C
	CommandEcho            Command = 0x000D
	CommandQueryDirectory  Command = 0x000E
	CommandChangeNotify    Command = 0x000F
	CommandQueryInfo       Command = 0x0010
	CommandSetInfo         Command = 0x0011
	CommandOplockBreak     Command = 0x0012
)

func (c Command) String() string {
	switch c {
	case CommandNegotiate:
		return "NEGOTIATE"
	case CommandSessionSetup:
		return "SESSION_SETUP"
	case CommandLogoff:
		return "LOGOFF"
	case CommandTreeConnect:
		return "TREE_CONNECT"
	case CommandTreeDisconnect:
		return "TREE_DISCONNECT"
	case CommandCreate:
		return "CREATE"
	case CommandClose:
		return "CLOSE"
	case CommandFlush:
		return "FLUSH"
	case CommandRead:
		return "READ"
	case CommandWrite:
		return "WRITE"
	case CommandLock:
		return "LOCK"
	case CommandIoctl:
		return "IOCTL"
	case CommandCancel:
		return "CANCEL"
	case CommandEcho:
		return "ECHO"
	case CommandQueryDirectory:
		return "QUERY_DIRECTORY"
	case CommandChangeNotify:
		return "CHANGE_NOTIFY"
	case CommandQueryInfo:
		return "QUERY_INFO"
	case CommandSetInfo:
		return "SET_INFO"
	case CommandOplockBreak:
		return "OPLOCK_BREAK"
	default:
		return "UNKNOWN"
	}
}

// HeaderFlags holds the SMB2 header flag bits. [MS-SMB2] 2.2.1.1
type HeaderFlags uint32

const (
	FlagResponse     HeaderFlags = 0x00000001
	FlagAsync        HeaderFlags = 0x00000002
	FlagRelated      HeaderFlags = 0x00000004
	FlagSigned       HeaderFlags = 0x00000008
	FlagPriorityMask HeaderFlags = 0x00000070
	FlagDFS          HeaderFlags = 0x10000000
	FlagReplay       HeaderFlags = 0x20000000
)

func (f HeaderFlags) Has(flag HeaderFlags) bool { return f&flag != 0 }
func (f HeaderFlags) IsResponse() bool          { return f.Has(FlagResponse) }
func (f HeaderFlags) IsAsync() bool             { return f.Has(FlagAsync) }
func (f HeaderFlags) IsRelated() bool           { return f.Has(FlagRelated) }
func (f HeaderFlags) IsSigned() bool            { return f.Has(FlagSigned) }

// Dialect is a negotiated SMB2/3 protocol version. [MS-SMB2] 2.2.3
type Dialect uint16

const (
	Dialect0202     Dialect = 0x0202
	Dialect0210     Dialect = 0x0210
	Dialect0300     Dialect = 0x0300
	Dialect0302     Dialect = 0x0302
	Dialect0311     Dialect = 0x0311
	DialectWildcard Dialect = 0x02FF
	DialectNone     Dialect = 0x0000
)

func (d Dialect) String() string {
	switch d {
	case Dialect0202:
		return "SMB 2.0.2"
	case Dialect0210:
		return "SMB 2.1"
	case Dialect0300:
		return "SMB 3.0"
	case Dialect0302:
		return "SMB 3.0.2"
	case Dialect0311:
		return "SMB 3.1.1"
	case DialectWildcard:
		return "SMB 2.x (wildcard)"
	default:
		return "unnegotiated"
	}
}

// SupportedDialects lists the dialects this CORE negotiates, highest first.
// Dialect 3.1.1 is accepted for negotiate-context parsing but downgraded to
// 3.0 semantics since pre-auth-integrity-bound encryption transform is a
// declared non-goal.
var SupportedDialects = []Dialect{Dialect0300, Dialect0210, Dialect0202}

// Capabilities is the SMB2 capability bitset. [MS-SMB2] 2.2.3
type Capabilities uint32

const (
	CapDFS               Capabilities = 0x00000001
	CapLeasing           Capabilities = 0x00000002
	CapLargeMTU          Capabilities = 0x00000004
	CapMultiChannel      Capabilities = 0x00000008
	CapPersistentHandles Capabilities = 0x00000010
	CapDirectoryLeasing  Capabilities = 0x00000020
	CapEncryption        Capabilities = 0x00000040
)

func (c Capabilities) Has(cap Capabilities) bool { return c&cap != 0 }

// SessionFlags. [MS-SMB2] 2.2.6
type SessionFlags uint16

const (
	SessionFlagIsGuest     SessionFlags = 0x0001
	SessionFlagIsNull      SessionFlags = 0x0002
	SessionFlagEncryptData SessionFlags = 0x0004
)

// ShareType. [MS-SMB2] 2.2.10
type ShareType uint8

const (
	ShareTypeDisk  ShareType = 0x01
	ShareTypePipe  ShareType = 0x02
	ShareTypePrint ShareType = 0x03
)

// CreateDisposition. [MS-SMB2] 2.2.13
type CreateDisposition uint32

const (
	FileSupersede   CreateDisposition = 0x00000000
	FileOpen        CreateDisposition = 0x00000001
	FileCreate      CreateDisposition = 0x00000002
	FileOpenIf      CreateDisposition = 0x00000003
	FileOverwrite   CreateDisposition = 0x00000004
	FileOverwriteIf CreateDisposition = 0x00000005
)

// CreateAction. [MS-SMB2] 2.2.14
type CreateAction uint32

const (
	FileSuperseded  CreateAction = 0x00000000
	FileOpened      CreateAction = 0x00000001
	FileCreated     CreateAction = 0x00000002
	FileOverwritten CreateAction = 0x00000003
)

// FileAttributes. [MS-FSCC] 2.6
type FileAttributes uint32

const (
	FileAttributeReadonly          FileAttributes = 0x00000001
	FileAttributeHidden            FileAttributes = 0x00000002
	FileAttributeSystem            FileAttributes = 0x00000004
	FileAttributeDirectory         FileAttributes = 0x00000010
	FileAttributeArchive           FileAttributes = 0x00000020
	FileAttributeNormal            FileAttributes = 0x00000080
	FileAttributeTemporary         FileAttributes = 0x00000100
	FileAttributeSparseFile        FileAttributes = 0x00000200
	FileAttributeReparsePoint      FileAttributes = 0x00000400
	FileAttributeCompressed        FileAttributes = 0x00000800
	FileAttributeNotContentIndexed FileAttributes = 0x00002000
	FileAttributeEncrypted         FileAttributes = 0x00004000
)

func (a FileAttributes) IsDirectory() bool { return a&FileAttributeDirectory != 0 }

// FileInfoClass. [MS-FSCC] 2.4
type FileInfoClass uint8

const (
	FileDirectoryInformation       FileInfoClass = 1
	FileFullDirectoryInformation   FileInfoClass = 2
	FileBothDirectoryInformation   FileInfoClass = 3
	FileBasicInformation           FileInfoClass = 4
	FileStandardInformation        FileInfoClass = 5
	FileInternalInformation        FileInfoClass = 6
	FileEaInformation              FileInfoClass = 7
	FileAccessInformation          FileInfoClass = 8
	FileNameInformation            FileInfoClass = 9
	FileRenameInformation          FileInfoClass = 10
	FileNamesInformation           FileInfoClass = 12
	FileDispositionInformation     FileInfoClass = 13
	FileAllocationInformation      FileInfoClass = 19
	FileEndOfFileInformation       FileInfoClass = 20
	FileLinkInformation            FileInfoClass = 11
	FileNetworkOpenInformation     FileInfoClass = 34
	FileIdBothDirectoryInformation FileInfoClass = 37
	FileIdFullDirectoryInformation FileInfoClass = 38
	FileFullEaInformation          FileInfoClass = 15
	FileAllInformation             FileInfoClass = 18
)

// FsInfoClass. [MS-FSCC] 2.5 (subset used by QUERY_INFO InfoTypeFilesystem)
type FsInfoClass uint8

const (
	FileFsVolumeInformation FsInfoClass = 1
	FileFsSizeInformation   FsInfoClass = 3
	FileFsDeviceInformation FsInfoClass = 4
	FileFsAttributeInfo     FsInfoClass = 5
	FileFsFullSizeInfo      FsInfoClass = 7
)

// InfoType. [MS-SMB2] 2.2.37
type InfoType uint8

const (
	InfoTypeFile       InfoType = 0x01
	InfoTypeFilesystem InfoType = 0x02
	InfoTypeSecurity   InfoType = 0x03
	InfoTypeQuota      InfoType = 0x04
)

// AccessMask. [MS-SMB2] 2.2.13.1
type AccessMask uint32

const (
	FileReadData         AccessMask = 0x00000001
	FileWriteData        AccessMask = 0x00000002
	FileAppendData       AccessMask = 0x00000004
	FileReadEA           AccessMask = 0x00000008
	FileWriteEA          AccessMask = 0x00000010
	FileExecute          AccessMask = 0x00000020
	FileDeleteChild      AccessMask = 0x00000040
	FileReadAttributes   AccessMask = 0x00000080
	FileWriteAttributes  AccessMask = 0x00000100
	Delete               AccessMask = 0x00010000
	ReadControl          AccessMask = 0x00020000
	WriteDac             AccessMask = 0x00040000
	WriteOwner           AccessMask = 0x00080000
	Synchronize          AccessMask = 0x00100000
	AccessSystemSecurity AccessMask = 0x01000000
	MaximumAllowed       AccessMask = 0x02000000
	GenericAll           AccessMask = 0x10000000
	GenericExecute       AccessMask = 0x20000000
	GenericWrite         AccessMask = 0x40000000
	GenericRead          AccessMask = 0x80000000
)

// attributeOnlyMask is the set of access bits that never conflict with an
// existing oplock holder (§4.D "attribute-only opens").
const attributeOnlyMask = AccessMask(FileReadAttributes | FileWriteAttributes | Synchronize)

// IsAttributeOnly reports whether the mask requests only attribute/sync
// access, per the oplock break-exemption rule in §4.D.
func (a AccessMask) IsAttributeOnly() bool { return a&^attributeOnlyMask == 0 }

func (a AccessMask) WantsWrite() bool {
	return a&(FileWriteData|FileAppendData|Delete|WriteDac|WriteOwner|GenericWrite|GenericAll) != 0
}

// ShareAccess. [MS-SMB2] 2.2.13
type ShareAccess uint32

const (
	FileShareRead   ShareAccess = 0x00000001
	FileShareWrite  ShareAccess = 0x00000002
	FileShareDelete ShareAccess = 0x00000004
)

// CreateOptions. [MS-SMB2] 2.2.13
type CreateOptions uint32

const (
	FileDirectoryFile           CreateOptions = 0x00000001
	FileWriteThrough            CreateOptions = 0x00000002
	FileSequentialOnly          CreateOptions = 0x00000004
	FileNoIntermediateBuffering CreateOptions = 0x00000008
	FileSynchronousIoAlert      CreateOptions = 0x00000010
	FileSynchronousIoNonalert   CreateOptions = 0x00000020
	FileNonDirectoryFile        CreateOptions = 0x00000040
	FileCompleteIfOplocked      CreateOptions = 0x00000100
	FileNoEaKnowledge           CreateOptions = 0x00000200
	FileRandomAccess            CreateOptions = 0x00000800
	FileDeleteOnClose           CreateOptions = 0x00001000
	FileOpenByFileId            CreateOptions = 0x00002000
	FileOpenForBackupIntent     CreateOptions = 0x00004000
	FileNoCompression           CreateOptions = 0x00008000
	FileOpenReparsePoint        CreateOptions = 0x00200000
	FileOpenNoRecall            CreateOptions = 0x00400000
)

// QueryDirectoryFlags. [MS-SMB2] 2.2.33
type QueryDirectoryFlags uint8

const (
	FlagRestartScans      QueryDirectoryFlags = 0x01
	FlagReturnSingleEntry QueryDirectoryFlags = 0x02
	FlagIndexSpecified    QueryDirectoryFlags = 0x04
	FlagReopen            QueryDirectoryFlags = 0x10
)

// CloseFlags. [MS-SMB2] 2.2.15
type CloseFlags uint16

const ClosePostQueryAttrib CloseFlags = 0x0001

// OplockLevel. [MS-SMB2] 2.2.13 / 2.2.14
type OplockLevel uint8

const (
	OplockLevelNone      OplockLevel = 0x00
	OplockLevelII        OplockLevel = 0x01
	OplockLevelExclusive OplockLevel = 0x08
	OplockLevelBatch     OplockLevel = 0x09
	OplockLevelLease     OplockLevel = 0xFF
)

// LockFlags. [MS-SMB2] 2.2.26.1
type LockFlags uint32

const (
	LockFlagShared           LockFlags = 0x00000001
	LockFlagExclusive        LockFlags = 0x00000002
	LockFlagUnlock           LockFlags = 0x00000004
	LockFlagFailImmediately  LockFlags = 0x00000010
)

// IoctlCode. [MS-FSCC]/[MS-SMB2] 2.2.31
type IoctlCode uint32

const (
	FsctlPipeTranceive   IoctlCode = 0x0011C017
	FsctlDfsGetReferrals IoctlCode = 0x00060194
	FsctlValidateNegotiateInfo IoctlCode = 0x00140204
)

// CreateContextName identifies a create-context tag. [MS-SMB2] 2.2.13.2
type CreateContextName string

const (
	CtxDurableHandleRequest   CreateContextName = "DHnQ"
	CtxDurableHandleReconnect CreateContextName = "DHnC"
	CtxRequestLease           CreateContextName = "RqLs"
	CtxExtendedAttribute      CreateContextName = "ExtA"
	CtxMaximalAccess          CreateContextName = "MxAc"
	CtxQueryOnDiskID          CreateContextName = "QFid"
)

// LeaseState bits. [MS-SMB2] 2.2.13.2.8
type LeaseState uint32

const (
	LeaseNone         LeaseState = 0x00000000
	LeaseReadCaching  LeaseState = 0x00000001
	LeaseHandleCaching LeaseState = 0x00000002
	LeaseWriteCaching LeaseState = 0x00000004
)

func (l LeaseState) Has(bit LeaseState) bool { return l&bit != 0 }

// Valid reports whether the bit combination is legal: Write implies Read,
// Handle requires Read.
func (l LeaseState) Valid() bool {
	if l.Has(LeaseWriteCaching) && !l.Has(LeaseReadCaching) {
		return false
	}
	if l.Has(LeaseHandleCaching) && !l.Has(LeaseReadCaching) {
		return false
	}
	return true
}

// ChangeNotifyFlags. [MS-SMB2] 2.2.35
type ChangeNotifyFlags uint16

const ChangeNotifyWatchTree ChangeNotifyFlags = 0x0001

// CompletionFilter selects which kinds of directory changes a
// CHANGE_NOTIFY request should report. [MS-SMB2] 2.2.35
type CompletionFilter uint32

const (
	FilterFileName     CompletionFilter = 0x00000001
	FilterDirName      CompletionFilter = 0x00000002
	FilterAttributes   CompletionFilter = 0x00000004
	FilterSize         CompletionFilter = 0x00000008
	FilterLastWrite    CompletionFilter = 0x00000010
	FilterLastAccess   CompletionFilter = 0x00000020
	FilterCreation     CompletionFilter = 0x00000040
	FilterEa           CompletionFilter = 0x00000080
	FilterSecurity     CompletionFilter = 0x00000100
	FilterStreamName   CompletionFilter = 0x00000200
	FilterStreamSize   CompletionFilter = 0x00000400
	FilterStreamWrite  CompletionFilter = 0x00000800
)

// NotifyAction. [MS-FSCC] 2.7.1
type NotifyAction uint32

const (
	NotifyActionAdded          NotifyAction = 0x00000001
	NotifyActionRemoved        NotifyAction = 0x00000002
	NotifyActionModified       NotifyAction = 0x00000003
	NotifyActionRenamedOldName NotifyAction = 0x00000004
	NotifyActionRenamedNewName NotifyAction = 0x00000005
	NotifyActionAdded2Stream   NotifyAction = 0x00000006
	NotifyActionRemoved2Stream NotifyAction = 0x00000007
	NotifyActionModified2Stream NotifyAction = 0x00000008
)
