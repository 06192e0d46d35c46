package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	KeywordsFile string
	Port         string
	BaseUrl      string
	APIAccessKey string
	ScanSchedule string
	PostLimit    int

	// Notification configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AlertFrom    string
	AlertTo      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// NotificationsEnabled reports whether e-mail alerts can be delivered.
func (c *Cfg) NotificationsEnabled() bool {
	return c.SMTPHost != "" && c.AlertTo != ""
}
