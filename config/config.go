package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	Debug         bool
}

func ParseFlags() (cfg Config, err error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number (default 80)")
	fs.StringVar(&cfg.DBUrl, "db-url", "feedbacks.sqlite", "path to SQLite3 DB file (default feedbacks.sqlite)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption (or TOKEN_SECRET env)")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 900, "access token TTL in seconds (default 900)")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "Gemini API key (prefer GEMINI_API_KEY env)")
	fs.StringVar(&cfg.GeminiBaseURL, "gemini-url", "", "Gemini API base URL override (for testing)")
	fs.StringVar(&cfg.GeminiModel, "gemini-model", "gemini-2.5-flash", "Gemini model name")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	err = fs.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	// secrets fall back to the environment
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	}
	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (or TOKEN_SECRET env)")
		return
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.GeminiAPIKey == "" {
		err = errors.New("missing parameter -gemini-api-key (or GEMINI_API_KEY env)")
		return
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
