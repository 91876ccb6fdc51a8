// Package lockfile implements the Lockfile Locator: discovery of the
// client's short credential file across platform-default locations, and
// parsing of its five-field colon-delimited record.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no candidate path yields a parseable lockfile.
var ErrNotFound = errors.New("lockfile not found")

// Auth is the credential record read from the lockfile's third, fourth and
// fifth fields: port, password, protocol.
type Auth struct {
	Port     uint16
	Password string
	Protocol string
}

// CandidatePaths builds the ordered, deduplicated list of paths to probe:
// explicit override, env override, then platform defaults, per spec.md §4.2.
func CandidatePaths(explicitOverride, envOverride string) []string {
	var ordered []string
	if explicitOverride != "" {
		ordered = append(ordered, explicitOverride)
	}
	if envOverride != "" {
		ordered = append(ordered, envOverride)
	}
	ordered = append(ordered, platformDefaults()...)
	return dedupe(expandAll(ordered))
}

func platformDefaults() []string {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		return []string{
			joinNonEmpty(localAppData, "Riot Games/Riot Client/Config/lockfile"),
			joinNonEmpty(localAppData, "Riot Games/League of Legends/lockfile"),
			`C:\Riot Games\League of Legends\lockfile`,
		}
	case "darwin":
		return []string{
			"~/Library/Application Support/League of Legends/lockfile",
			"/Applications/League of Legends.app/Contents/LoL/lockfile",
		}
	default:
		return []string{
			"~/.config/League of Legends/lockfile",
			"~/.local/share/league-of-legends/lockfile",
			"~/Games/league-of-legends/lockfile",
		}
	}
}

func joinNonEmpty(base, suffix string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/\\") + "/" + suffix
}

func expandAll(paths []string) []string {
	expanded := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		expanded = append(expanded, expandHome(path))
	}
	return expanded
}

// expandHome expands a leading ~ or ~/ against HOME, falling back to USERPROFILE.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return home + path[1:]
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	return out
}

// Discover reads each candidate in order, returning the first path whose
// contents parse successfully. Malformed contents are skipped, not fatal.
func Discover(candidates []string, onMalformed func(path string, err error)) (string, Auth, error) {
	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		auth, perr := Parse(string(raw))
		if perr != nil {
			if onMalformed != nil {
				onMalformed(path, perr)
			}
			continue
		}
		return path, auth, nil
	}
	return "", Auth{}, ErrNotFound
}

// Parse splits a lockfile's contents on ':' into at least five fields:
// name:pid:port:password:protocol.
func Parse(contents string) (Auth, error) {
	fields := strings.Split(strings.TrimSpace(contents), ":")
	if len(fields) < 5 {
		return Auth{}, fmt.Errorf("expected at least 5 colon-delimited fields, got %d", len(fields))
	}
	port, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return Auth{}, fmt.Errorf("invalid port %q: %w", fields[2], err)
	}
	return Auth{
		Port:     uint16(port),
		Password: fields[3],
		Protocol: strings.ToLower(fields[4]),
	}, nil
}
