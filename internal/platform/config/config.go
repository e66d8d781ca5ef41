// Package config reads settings from the environment through prefixed views.
// Services read under LIKERT_ and each store driver nests below it
// (LIKERT_S3_, LIKERT_SHEETS_, LIKERT_PG_)
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"likert/internal/platform/logger"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix, e.g. New().Prefix("LIKERT_").Prefix("PG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) name(key string) string { return c.prefix + key }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.name(key))) }

// parsed returns def for a blank key and warns when the value does not parse
func parsed[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.name(key)).Str("value", s).Interface("default", def).Msg("unparsable setting; using default")
		return def
	}
	return v
}

// MayString returns key or def when blank
func (c Conf) MayString(key, def string) string {
	return parsed(c, key, def, func(s string) (string, error) { return s, nil })
}

// MayInt returns key as an int, def when blank or invalid
func (c Conf) MayInt(key string, def int) int { return parsed(c, key, def, strconv.Atoi) }

// MayBool returns key as a bool (strconv.ParseBool forms), def when blank or invalid
func (c Conf) MayBool(key string, def bool) bool { return parsed(c, key, def, strconv.ParseBool) }

// MayDuration returns key as a duration such as 250ms or 5s, def when blank or invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return parsed(c, key, def, time.ParseDuration)
}

// MayCSV splits key on commas and drops blank items; def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MaySecret returns KEY, else the trimmed contents of the file named by KEY_FILE,
// else def. An unreadable file logs a warning and yields def
func (c Conf) MaySecret(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	path := c.lookup(key + "_FILE")
	if path == "" {
		return def
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", c.name(key+"_FILE")).Msg("secret file unreadable; using default")
		return def
	}
	if v := strings.TrimSpace(string(b)); v != "" {
		return v
	}
	return def
}
