package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	//
	//	0 - None: quiet (prints nothing but errors)
	//	1 - Standard: normal progress messages
	//	2 - Progress: more progress messages (no record data)
	//	3 - Data: shows limited record data
	//	4 - FullData: shows full record data
	//	5 - Debug: shows raw lines
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgBaseName string = "logsink"
	ProgVersion  string = "v0.3.0"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Diagnostic event queue
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	// Receivers
	FifoNamePrefix       string = "log-channel-"
	FifoNameSuffix       string = ".fifo"
	DefaultMaxLineLength int    = 1 << 20

	// Bus
	DefaultBufferSize  int    = 512
	ApproxRecordBytes  uint64 = 512 // Rough in-memory size used for buffer memory estimates
	MaxBufferMemoryPct uint64 = 25  // Per-sink buffer may use at most this share of free memory

	// Sinks
	DefaultConsoleLevel string = "info"
	DefaultFileLevel    string = "info"
	DefaultRemoteLevel  string = "notice"
	FileFormatText      string = "text"
	FileFormatJSON      string = "json"
	ZstdSuffix          string = ".zst"
	BeatsTimeout               = 3 * time.Second
	JournalUploadPath   string = "upload"

	// Background handoff (parent -> child environment)
	EnvNameHandoff     string        = "LOGSINK_HANDOFF"
	EnvNameReadinessFD string        = "LOGSINK_READY_FD"
	ReadyMessage       string        = "READY"
	MaxWaitForChild    time.Duration = 10 * time.Second
	ChildKillTimeout   time.Duration = 5 * time.Second

	// Timeout values
	ShutdownTimeout     time.Duration = 10 * time.Second
	ReceiverStopTimeout time.Duration = 500 * time.Millisecond // readers blocked on a non-pollable stdin are abandoned after this

	// Namespacing Name Components
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSDaemon    string = "Daemon"
	NSSuite     string = "Suite"
	NSRecv      string = "Receiver"
	NSBus       string = "Bus"
	NSQueue     string = "Queue"
	NSSink      string = "Sink"
	NSWorker    string = "Worker"
	NSLifecycle string = "Lifecycle"
	NSoStdIn    string = "Stdin"
	NSoFifo     string = "Fifo"
	NSoConsole  string = "Console"
	NSoFile     string = "File"
	NSoBeats    string = "Beats"
	NSoJrnl     string = "Journal"
)
