package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// layers holds the three configuration sources. Lookups consult the explicit map, then the
// process environment, then the dotenv file.
type layers struct {
	explicit map[string]string
	system   bool
	dotenv   map[string]string
}

func (l layers) lookup(key string) (string, bool) {
	if v, ok := l.explicit[key]; ok {
		return v, true
	}
	if l.system {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
	}
	v, ok := l.dotenv[key]
	return v, ok
}

// flatten merges the layers into one map with the same precedence as lookup.
func (l layers) flatten() map[string]string {
	out := make(map[string]string, len(l.dotenv)+len(l.explicit))
	for k, v := range l.dotenv {
		out[k] = v
	}
	if l.system {
		for _, entry := range os.Environ() {
			if k, v, ok := strings.Cut(entry, "="); ok && strings.TrimSpace(k) != "" {
				out[k] = v
			}
		}
	}
	for k, v := range l.explicit {
		out[k] = v
	}
	return out
}

// envReader reads typed values and remembers which keys failed to parse.
type envReader struct {
	src     layers
	invalid *ValidationError
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.src.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *envReader) reject(key, value, expected string) {
	r.invalid.add(key, fmt.Sprintf("%q is not %s", value, expected))
}

func (r *envReader) str(key, fallback string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) lower(key, fallback string) string {
	return strings.ToLower(r.str(key, fallback))
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.reject(key, v, "a duration")
		return fallback
	}
	return d
}

func (r *envReader) integer(key string, fallback int64) int64 {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.reject(key, v, "an integer")
		return fallback
	}
	return n
}

func (r *envReader) flag(key string, fallback bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	r.reject(key, v, "a boolean")
	return fallback
}

// list splits a comma separated value, dropping blanks.
func (r *envReader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pairs parses "name=value,name=value". Names are lower-cased; an entry without "=" is invalid.
func (r *envReader) pairs(key string) map[string]string {
	out := make(map[string]string)
	for _, entry := range r.list(key) {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			r.reject(key, entry, "a name=value pair")
			continue
		}
		out[name] = value
	}
	return out
}

// readDotEnv loads KEY=VALUE lines. A missing file is not an error.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	values, err := parseDotEnv(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return values, nil
}

func parseDotEnv(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if key = strings.TrimSpace(key); !ok || key == "" {
			continue
		}
		values[key] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
