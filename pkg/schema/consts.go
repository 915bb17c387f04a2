package schema

const (
	Trace    Level = 5
	Debug5   Level = 6
	Debug4   Level = 7
	Debug3   Level = 8
	Debug2   Level = 9
	Debug    Level = 10
	Info     Level = 20
	Notice   Level = 25
	Warn     Level = 30
	Error    Level = 40
	Critical Level = 50
	Fatal    Level = 60

	// Render widths at or above these select the wider form
	mediumWidth int = 5
	fullWidth   int = 8

	// Wire field names
	fieldLevel       string = "level"
	fieldTimestamp   string = "timestamp"
	fieldName        string = "name"
	fieldContextID   string = "context_id"
	fieldOrigin      string = "origin"
	fieldMessage     string = "message"
	fieldOriginID    string = "origin_id"
	fieldHostname    string = "hostname"
	fieldProcessName string = "process_name"
	fieldProcessID   string = "process_id"
	fieldThreadName  string = "thread_name"
	fieldThreadID    string = "thread_id"
)

// Sorted by ordinal, never mutated
var namedLevels = [...]namedLevel{
	{Trace, "Trace", "Trace", "TRC"},
	{Debug5, "Debug5", "Dbg5 ", "DB5"},
	{Debug4, "Debug4", "Dbg4 ", "DB4"},
	{Debug3, "Debug3", "Dbg3 ", "DB3"},
	{Debug2, "Debug2", "Dbg2 ", "DB2"},
	{Debug, "Debug", "Debug", "DBG"},
	{Info, "Info", "Info ", "INF"},
	{Notice, "Notice", "Notce", "NTC"},
	{Warn, "Warn", "Warn ", "WRN"},
	{Error, "Error", "Error", "ERR"},
	{Critical, "Critical", "Crit ", "CRT"},
	{Fatal, "Fatal", "Fatal", "FTL"},
}

// Extra accepted spellings on top of full names and short codes
var levelAliases = map[string]Level{
	"warning":     Warn,
	"crit":        Critical,
	"dbg":         Debug,
	"inf":         Info,
	"information": Info,
	"note":        Notice,
	"fatl":        Fatal,
}
