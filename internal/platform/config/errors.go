package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// ValidationError lists every configuration problem found by Load.
type ValidationError struct {
	problems []problem
}

type problem struct {
	field  string
	reason string
}

func (e *ValidationError) add(field, reason string) {
	e.problems = append(e.problems, problem{field: field, reason: reason})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.problems))
	for _, p := range e.problems {
		parts = append(parts, p.field+" "+p.reason)
	}
	return "config: invalid configuration: " + strings.Join(parts, "; ")
}

// Fields returns the offending field names in discovery order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.problems))
	for _, p := range e.problems {
		out = append(out, p.field)
	}
	return out
}

// SecretError describes a failed secret reference lookup.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("config: resolve secret %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError reports required secrets that resolved to nothing. Its message carries
// hashed names only, so it is safe to log.
type MissingSecretsError struct {
	names []string
}

func newMissingSecretsError(required []string, resolved map[string]string) *MissingSecretsError {
	seen := make(map[string]struct{}, len(required))
	var names []string
	for _, name := range required {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(resolved[name]) == "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return &MissingSecretsError{names: names}
}

func (e *MissingSecretsError) Error() string {
	return "config: missing required secrets [" + strings.Join(e.RedactedNames(), ", ") + "]"
}

// Names returns the config field names of the missing secrets.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.names...)
}

// RedactedNames returns a short digest per missing secret, sorted.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}
