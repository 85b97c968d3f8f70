package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	CategoriesDir   string
	Port            string
	WorkerCount     int
	RefreshInterval int // seconds
	APIAccessKey    string
	SourceMode      string // live or fixture

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
