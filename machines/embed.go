package machines

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/fsmkit/fsmdef"
	"github.com/milk9111/fsmkit/script"
)

//go:embed *.yaml scripts/*.tengo tuning/*.yaml
var EmbeddedFS embed.FS

// Library resolves machine definitions, scripts and tuning files. Files in
// dir take precedence over the embedded copies.
type Library struct {
	dir string
}

// NewLibrary returns a library reading overrides from dir. An empty dir
// uses the embedded files only.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) Dir() string { return l.dir }

// Load reads a definition or tuning file.
func (l *Library) Load(name string) ([]byte, error) {
	return l.read(cleanPath(name, ""))
}

// LoadScript reads a script by name, with or without the scripts/ prefix.
func (l *Library) LoadScript(name string) ([]byte, error) {
	return l.read(cleanPath(name, "scripts/"))
}

func (l *Library) read(clean string) ([]byte, error) {
	if clean == "" {
		return nil, fmt.Errorf("machines: empty name")
	}
	if l.dir != "" {
		if data, err := os.ReadFile(l.diskPath(clean)); err == nil {
			return data, nil
		}
	}
	data, err := EmbeddedFS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("machines: load %s: %w", clean, err)
	}
	return data, nil
}

// ModTime reports the modification time of an on-disk override.
func (l *Library) ModTime(name string) (time.Time, bool) {
	if l.dir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(l.diskPath(cleanPath(name, "")))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Names lists definition names (without extension) from both the embedded
// set and the override dir.
func (l *Library) Names() ([]string, error) {
	seen := map[string]bool{}
	entries, err := fs.ReadDir(EmbeddedFS, ".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() && isSpecFile(e.Name()) {
			seen[trimExt(e.Name())] = true
		}
	}
	if l.dir != "" {
		disk, err := os.ReadDir(l.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("machines: list %s: %w", l.dir, err)
		}
		for _, e := range disk {
			if !e.IsDir() && isSpecFile(e.Name()) {
				seen[trimExt(e.Name())] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

// Definition loads and compiles a machine definition.
func (l *Library) Definition(name string) (*fsmdef.Definition, error) {
	data, err := l.Load(withExt(name))
	if err != nil {
		return nil, err
	}
	def, err := fsmdef.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("machines: %s: %w", name, err)
	}
	return def, nil
}

// Script loads and compiles a lifecycle script.
func (l *Library) Script(name string) (*script.Runtime, error) {
	data, err := l.LoadScript(name)
	if err != nil {
		return nil, err
	}
	return script.Compile(name, data)
}

// Actor builds an actor for the named definition, attaching its script if
// it declares one.
func (l *Library) Actor(name string, opts ...fsmdef.ActorOption) (*fsmdef.Actor, error) {
	def, err := l.Definition(name)
	if err != nil {
		return nil, err
	}
	if def.Script != "" {
		rt, err := l.Script(def.Script)
		if err != nil {
			return nil, fmt.Errorf("machines: %s: %w", name, err)
		}
		opts = append(opts, fsmdef.WithScript(rt))
	}
	return fsmdef.NewActor(def, opts...)
}

// LoadSpec decodes a YAML file from the library into T.
func LoadSpec[T any](l *Library, name string) (T, error) {
	var zero T
	data, err := l.Load(name)
	if err != nil {
		return zero, err
	}
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("machines: unmarshal %s: %w", name, err)
	}
	return spec, nil
}

func (l *Library) diskPath(clean string) string {
	return filepath.Join(l.dir, filepath.FromSlash(clean))
}

func cleanPath(path, prefix string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "machines/"); ok {
		s = after
	}
	if prefix != "" && !strings.HasPrefix(s, prefix) {
		s = prefix + s
	}
	return s
}

func withExt(name string) string {
	if isSpecFile(name) {
		return name
	}
	return name + ".yaml"
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
