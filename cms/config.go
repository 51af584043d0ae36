package cms

// Config holds the file-based configuration for the site.
// These are bootstrap settings loaded from config.yaml that are needed
// before the database connection is established.
type Config struct {
	DatabaseFile     string `yaml:"dbfile"`
	Host             string `yaml:"host"`
	BaseURL          string `yaml:"base_url"`
	SiteName         string `yaml:"site_name"`
	LogFormat        string `yaml:"log_format"`
	LogLevel         string `yaml:"log_level"`
	Sanitizer        string `yaml:"sanitizer"`
	RenderWorkers    int    `yaml:"render_workers"`
	PageCacheTTL     int    `yaml:"page_cache_ttl"`
	PublishTokenHash string `yaml:"publish_token_hash"`
}
