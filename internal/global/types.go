package global

type CtxKey string

// On-disk configuration (JSONC). Every field is optional, flags override.
type Config struct {
	Receivers ReceiverConfig `json:"receivers"`
	Console   SinkConfig     `json:"console"`
	File      FileSinkConfig `json:"file"`
	Beats     RemoteConfig   `json:"beats"`
	Journal   RemoteConfig   `json:"journal"`
	Bus       BusConfig      `json:"bus"`
	Logging   Logging        `json:"logging"`
}

type ReceiverConfig struct {
	Fifo          bool `json:"fifo"`
	Stdin         bool `json:"stdin"`
	Background    bool `json:"background"`
	MaxLineLength int  `json:"maxLineLength,omitempty"`
}

type SinkConfig struct {
	Level string `json:"level,omitempty"`
	Width int    `json:"width,omitempty"`
}

type FileSinkConfig struct {
	Path   string `json:"path,omitempty"`
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

type RemoteConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	Level    string `json:"level,omitempty"`
}

type BusConfig struct {
	BufferSize int `json:"bufferSize,omitempty"`
}

type Logging struct {
	Verbosity *int `json:"verbosity,omitempty"`
}
