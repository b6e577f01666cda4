package bootstrap

import (
	"fmt"
	"time"

	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/internal/app/notify"
	"go.uber.org/zap"
)

// AppConfig holds the contact service settings. Environment names are the
// key names upper-cased (SMTP_HOST, CONTACT_EMAIL, ALLOWED_ORIGINS …).
type AppConfig struct {
	NotifyTransport string
	NotifyFrom      string
	NotifyTimeout   time.Duration
	CompanyName     string
	ContactEmail    string

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPSkipVerify bool

	PostmarkServerToken  string
	PostmarkAccountToken string
	FormspreeEndpoint    string

	SiteConfigPath     string
	SiteConfigWatch    bool
	EnableConfigReload bool
	StaticDir          string

	RedisURL        string
	RateLimitWindow time.Duration
	RateLimitMax    int

	AllowedOrigins    []string
	TrustProxyHeaders bool
	EnableMetrics     bool
}

var appKeys = []config.AppKey{
	{Name: "notify_transport", Default: notify.KindSMTP, Desc: "Notification transport: smtp, postmark, formspree or log"},
	{Name: "notify_from", Default: "", Desc: "Sender address for notifications (default: smtp_user)"},
	{Name: "notify_timeout", Default: notify.DefaultTimeout, Desc: "Timeout for one notification send"},
	{Name: "company_name", Default: notify.DefaultCompanyName, Desc: "Company name used when the site config has none"},
	{Name: "contact_email", Default: "", Desc: "Destination when the site config has no emailPrincipal"},

	{Name: "smtp_host", Default: "", Desc: "SMTP relay host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP relay port (465 uses implicit TLS)"},
	{Name: "smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "smtp_pass", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "smtp_tls_skip_verify", Default: false, Desc: "Accept invalid SMTP server certificates"},

	{Name: "postmark_server_token", Default: "", Desc: "Postmark server token", Secret: true},
	{Name: "postmark_account_token", Default: "", Desc: "Postmark account token", Secret: true},
	{Name: "formspree_endpoint", Default: "", Desc: "Formspree form endpoint URL"},

	{Name: "site_config_path", Default: "public/contact-config.json", Desc: "Site configuration file (JSON or YAML)"},
	{Name: "site_config_watch", Default: true, Desc: "Reload the site configuration when the file changes"},
	{Name: "enable_config_reload", Default: true, Desc: "Expose PUT /api/config to reload the site configuration"},
	{Name: "static_dir", Default: "public", Desc: "Front-end build directory; empty disables static serving"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for shared rate-limit state; empty keeps it in memory"},
	{Name: "rate_limit_window", Default: 10 * time.Minute, Desc: "Rate-limit window per client"},
	{Name: "rate_limit_max", Default: 5, Desc: "Submissions allowed per client per window"},

	{Name: "allowed_origins", Default: []string{}, Desc: "CORS allow-list (comma separated); empty allows all"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Forwarded-For / X-Real-IP"},
	{Name: "enable_metrics", Default: true, Desc: "Record Prometheus metrics and serve /metrics"},
}

// LoadConfig loads core and app settings.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	core, vals, err := config.LoadWithAppConfig(logger, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	cfg := AppConfig{
		NotifyTransport: vals.String("notify_transport"),
		NotifyFrom:      vals.String("notify_from"),
		NotifyTimeout:   vals.Duration("notify_timeout", notify.DefaultTimeout),
		CompanyName:     vals.String("company_name"),
		ContactEmail:    vals.String("contact_email"),

		SMTPHost:       vals.String("smtp_host"),
		SMTPPort:       vals.Int("smtp_port"),
		SMTPUser:       vals.String("smtp_user"),
		SMTPPass:       vals.String("smtp_pass"),
		SMTPSkipVerify: vals.Bool("smtp_tls_skip_verify"),

		PostmarkServerToken:  vals.String("postmark_server_token"),
		PostmarkAccountToken: vals.String("postmark_account_token"),
		FormspreeEndpoint:    vals.String("formspree_endpoint"),

		SiteConfigPath:     vals.String("site_config_path"),
		SiteConfigWatch:    vals.Bool("site_config_watch"),
		EnableConfigReload: vals.Bool("enable_config_reload"),
		StaticDir:          vals.String("static_dir"),

		RedisURL:        vals.String("redis_url"),
		RateLimitWindow: vals.Duration("rate_limit_window", 10*time.Minute),
		RateLimitMax:    vals.Int("rate_limit_max"),

		AllowedOrigins:    vals.StringSlice("allowed_origins"),
		TrustProxyHeaders: vals.Bool("trust_proxy_headers"),
		EnableMetrics:     vals.Bool("enable_metrics"),
	}

	if err := cfg.validate(); err != nil {
		return nil, AppConfig{}, err
	}
	cfg.warnMissing(logger)
	return core, cfg, nil
}

func (c AppConfig) validate() error {
	if c.RateLimitMax < 1 {
		return fmt.Errorf("rate_limit_max must be at least 1 (got %d)", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive (got %s)", c.RateLimitWindow)
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port must be between 1 and 65535 (got %d)", c.SMTPPort)
	}
	if c.SiteConfigPath == "" {
		return fmt.Errorf("site_config_path is required")
	}
	return nil
}

// warnMissing flags settings the selected transport will need at send time.
func (c AppConfig) warnMissing(logger *zap.Logger) {
	var missing []string
	switch c.NotifyTransport {
	case "", notify.KindSMTP:
		for name, v := range map[string]string{"SMTP_HOST": c.SMTPHost, "SMTP_USER": c.SMTPUser, "SMTP_PASS": c.SMTPPass} {
			if v == "" {
				missing = append(missing, name)
			}
		}
	case notify.KindPostmark:
		if c.PostmarkServerToken == "" {
			missing = append(missing, "POSTMARK_SERVER_TOKEN")
		}
	case notify.KindFormspree:
		if c.FormspreeEndpoint == "" {
			missing = append(missing, "FORMSPREE_ENDPOINT")
		}
	}
	if len(missing) > 0 {
		logger.Warn("notification settings missing; contact form delivery may fail",
			zap.String("transport", c.NotifyTransport), zap.Strings("missing", missing))
	}
}
