package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultSiteURL = "http://localhost:8080"

type Config struct {
	Db_conn              string `mapstructure:"DB_CONN"`
	Site_url             string `mapstructure:"SITE_URL"`
	Jwt_secret           string `mapstructure:"JWT_SECRET"`
	Session_secret       string `mapstructure:"SESSION_SECRET"`
	Store_secure         bool   `mapstructure:"STORE_SECURE"`
	Google_client_id     string `mapstructure:"GOOGLE_CLIENT_ID"`
	Google_client_secret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	Storage_driver       string `mapstructure:"STORAGE_DRIVER"`
	S3_bucket            string `mapstructure:"S3_BUCKET"`
	S3_region            string `mapstructure:"S3_REGION"`
	S3_public_url        string `mapstructure:"S3_PUBLIC_URL"`
	Cloudinary_cloud     string `mapstructure:"CLOUDINARY_CLOUD"`
	Cloudinary_key       string `mapstructure:"CLOUDINARY_KEY"`
	Cloudinary_secret    string `mapstructure:"CLOUDINARY_SECRET"`
	Amqp_conn            string `mapstructure:"AMQP_CONN"`
	Cors_origins         string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"DB_CONN":              "",
	"SITE_URL":             DefaultSiteURL,
	"JWT_SECRET":           "",
	"SESSION_SECRET":       "",
	"STORE_SECURE":         false,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"STORAGE_DRIVER":       "s3",
	"S3_BUCKET":            "pagesy",
	"S3_REGION":            "us-west-2",
	"S3_PUBLIC_URL":        "",
	"CLOUDINARY_CLOUD":     "",
	"CLOUDINARY_KEY":       "",
	"CLOUDINARY_SECRET":    "",
	"AMQP_CONN":            "",
	"CORS_ORIGINS":         "",
}

// Load reads configuration from the process environment, optionally seeded
// from the env file at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file: %v", err)
		}
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %v", err)
	}

	cfg.Site_url = NormalizeURL(cfg.Site_url)

	return &cfg, nil
}

// NormalizeURL makes sure a site url carries a scheme and a trailing slash.
// Hosts without a scheme are assumed to be served over https.
func NormalizeURL(url string) string {
	if url == "" {
		url = DefaultSiteURL
	}

	if !strings.Contains(url, "http") {
		url = "https://" + url
	}

	if !strings.HasSuffix(url, "/") {
		url += "/"
	}

	return url
}

// RedirectURL joins path onto the normalized site url.
func (c *Config) RedirectURL(path string) string {
	return NormalizeURL(c.Site_url) + strings.TrimPrefix(path, "/")
}

func (c *Config) CorsOrigins() []string {
	origins := []string{strings.TrimSuffix(NormalizeURL(c.Site_url), "/")}

	for _, o := range strings.Split(c.Cors_origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}
