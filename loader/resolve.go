package loader

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/coreos/go-semver/semver"

	"github.com/nativebind/native-runtime/errors"
)

// platform captures the naming convention and search behavior of one OS.
type platform struct {
	goos      string
	prefix    string
	extension string
	envVar    string
	searchDir []string
}

var platforms = map[string]platform{
	"linux": {
		goos:      "linux",
		prefix:    "lib",
		extension: ".so",
		envVar:    "LD_LIBRARY_PATH",
		searchDir: []string{"/lib", "/usr/lib", "/usr/local/lib", "/lib/x86_64-linux-gnu", "/usr/lib/x86_64-linux-gnu"},
	},
	"darwin": {
		goos:      "darwin",
		prefix:    "lib",
		extension: ".dylib",
		envVar:    "DYLD_LIBRARY_PATH",
		searchDir: []string{"/usr/lib", "/usr/local/lib", "/opt/homebrew/lib"},
	},
	"windows": {
		goos:      "windows",
		prefix:    "",
		extension: ".dll",
		envVar:    "PATH",
		searchDir: nil, // the system loader walks PATH itself
	},
}

func currentPlatform() platform {
	if p, ok := platforms[runtime.GOOS]; ok {
		return p
	}
	// Unixes without an entry follow the ELF convention.
	p := platforms["linux"]
	p.goos = runtime.GOOS
	return p
}

// validVersion accepts "major", "major.minor" and full semver triples.
func validVersion(token string) bool {
	if token == "" {
		return true
	}
	if _, err := semver.NewVersion(token); err == nil {
		return true
	}
	parts := strings.Split(token, ".")
	if len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// FileName applies the platform naming table to a logical name:
//
//	"foo"      -> "libfoo.so" / "libfoo.dylib" / "foo.dll"
//	"foo", "1" -> "libfoo.so.1" / "libfoo.1.dylib" / "foo.dll"
//
// A reference that already carries the platform extension is returned
// verbatim. A qualified relative or absolute path receives only the
// extension, never the prefix.
func FileName(name, version, goos string) string {
	p, ok := platforms[goos]
	if !ok {
		p = platforms["linux"]
	}

	qualified := strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator)
	base := filepath.Base(name)

	if hasLibExtension(base, p.extension) {
		return name
	}

	switch p.goos {
	case "windows":
		// No version suffix exists in the DLL convention.
		return name + p.extension
	case "darwin":
		out := name + versionInfix(version) + p.extension
		if !qualified {
			out = p.prefix + out
		}
		return out
	default:
		out := name + p.extension
		if !qualified {
			out = p.prefix + out
		}
		if version != "" {
			out += "." + version
		}
		return out
	}
}

// hasLibExtension reports whether base is already a complete file name
// for the platform: it ends in the extension, or in the extension
// followed by a numeric version tail ("libm.so.6"). A name that merely
// contains the extension as a substring ("my.sock") is not complete.
func hasLibExtension(base, ext string) bool {
	if strings.HasSuffix(base, ext) {
		return true
	}
	i := strings.LastIndex(base, ext+".")
	if i < 0 {
		return false
	}
	tail := base[i+len(ext)+1:]
	for _, part := range strings.Split(tail, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func versionInfix(version string) string {
	if version == "" {
		return ""
	}
	return "." + version
}

// searchDirs returns the directories walked for a bare library name,
// in priority order: the platform environment variable first, then the
// conventional system directories.
func searchDirs(p platform) []string {
	var dirs []string
	if p.envVar != "" {
		for _, d := range filepath.SplitList(os.Getenv(p.envVar)) {
			if d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return append(dirs, p.searchDir...)
}

// resolvePath turns a spec into a loadable path, or reports every
// candidate that was attempted.
func resolvePath(name, version string) (string, []string, error) {
	p := currentPlatform()

	if !validVersion(version) {
		return "", nil, errors.InvalidInput(errors.PhaseResolve, "malformed version token "+strconv.Quote(version))
	}

	file := FileName(name, version, p.goos)

	// Qualified paths and complete file names are trusted as-is; the OS
	// loader reports the definitive failure if they do not exist.
	if strings.ContainsRune(file, '/') || strings.ContainsRune(file, filepath.Separator) {
		return file, []string{file}, nil
	}

	candidates := []string{file}
	for _, dir := range searchDirs(p) {
		full := filepath.Join(dir, file)
		candidates = append(candidates, full)
		if fileExists(full) {
			return full, candidates, nil
		}
		// No exact match: on ELF platforms an unversioned request can be
		// satisfied by the highest versioned sibling.
		if version == "" && p.extension == ".so" {
			if best := bestVersioned(dir, file); best != "" {
				candidates = append(candidates, best)
				return best, candidates, nil
			}
		}
	}

	// Fall back to the bare file name: dlopen applies its own search
	// (ldconfig cache and defaults) beyond what we can see.
	return file, candidates, nil
}

// bestVersioned finds the highest "<file>.<version>" in dir, ordering
// full triples by semver and shorter tokens numerically.
func bestVersioned(dir, file string) string {
	matches, err := filepath.Glob(filepath.Join(dir, file+".*"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	type versioned struct {
		path string
		ver  semver.Version
	}
	var found []versioned
	for _, m := range matches {
		token := strings.TrimPrefix(filepath.Base(m), file+".")
		if !validVersion(token) {
			continue
		}
		found = append(found, versioned{path: m, ver: padVersion(token)})
	}
	if len(found) == 0 {
		return ""
	}
	sort.Slice(found, func(i, j int) bool {
		return found[j].ver.LessThan(found[i].ver)
	})
	return found[0].path
}

// padVersion widens "1" and "1.2" to comparable semver triples.
func padVersion(token string) semver.Version {
	parts := strings.Split(token, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	v, err := semver.NewVersion(strings.Join(parts[:3], "."))
	if err != nil {
		return semver.Version{}
	}
	return *v
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
