package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	PostgresDSN string
	HTTPAddr    string
	CORSOrigins []string
	Seed        bool
	SessionTTL  time.Duration
}

func FromEnv() (Config, error) {
	var c Config

	c.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if c.PostgresDSN == "" {
		return c, fmt.Errorf("POSTGRES_DSN is empty")
	}

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	origins := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.CORSOrigins = append(c.CORSOrigins, o)
		}
	}

	c.Seed = os.Getenv("SEED") == "true"

	c.SessionTTL = 7 * 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return c, fmt.Errorf("SESSION_TTL_HOURS invalid: %q", v)
		}
		c.SessionTTL = time.Duration(hours) * time.Hour
	}

	return c, nil
}
