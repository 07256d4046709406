package section

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk form of a preset. Fields left out inherit from
// the base preset, classic by default.
type presetFile struct {
	Base   string `yaml:"base"`
	Preset `yaml:",inline"`
}

// ParsePreset decodes a YAML preset. Unknown fields are rejected.
func ParsePreset(data []byte) (Preset, error) {
	var header struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return Preset{}, errors.Errorf("parsing YAML: %w", err)
	}

	base := Classic
	if header.Base != "" {
		found := false
		for _, p := range builtinPresets() {
			if p.Name == header.Base {
				base, found = p, true
				break
			}
		}
		if !found {
			return Preset{}, errors.Errorf("base %q: %w", header.Base, ErrUnknownPreset)
		}
	}

	file := presetFile{Preset: base}
	file.Name = ""
	file.Description = ""
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Preset{}, errors.Errorf("parsing YAML: %w", err)
	}

	if err := file.Preset.Validate(); err != nil {
		return Preset{}, err
	}
	return file.Preset, nil
}

// LoadPresetFile reads and decodes a YAML preset file.
func LoadPresetFile(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, errors.Errorf("reading file: %w", err)
	}
	return ParsePreset(data)
}

// Registry holds the presets available by name: the built-in presets plus
// any loaded from YAML files. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	presets  map[string]Preset
	files    map[string]string // file path -> preset name
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(event string, name string)
	logger   zerolog.Logger
}

// NewRegistry creates a registry holding the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{
		logger: zerolog.Nop(),
	}
	r.reset()
	return r
}

// NewRegistryWithDirectory creates a registry and loads presets from dir.
func NewRegistryWithDirectory(dir string) (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadDirectory(dir); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets = make(map[string]Preset)
	r.files = make(map[string]string)
	for _, p := range builtinPresets() {
		r.presets[p.Name] = p
	}
}

// SetLogger sets the logger used for load and watch events.
func (r *Registry) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// Register adds or replaces a preset.
func (r *Registry) Register(p Preset) error {
	if err := p.Validate(); err != nil {
		return errors.Errorf("preset %q: %w", p.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.Name] = p
	return nil
}

// Unregister removes a preset.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[name]; !ok {
		return errors.Errorf("preset %q: %w", name, ErrUnknownPreset)
	}
	delete(r.presets, name)
	return nil
}

// Get returns a preset by name.
func (r *Registry) Get(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	return p, ok
}

// Lookup returns a preset by name, or an error wrapping ErrUnknownPreset.
func (r *Registry) Lookup(name string) (Preset, error) {
	p, ok := r.Get(name)
	if !ok {
		return Preset{}, errors.Errorf("preset %q: %w", name, ErrUnknownPreset)
	}
	return p, nil
}

// List returns all presets sorted by name.
func (r *Registry) List() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	presets := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// Names returns the registered preset names, sorted.
func (r *Registry) Names() []string {
	var names []string
	for _, p := range r.List() {
		names = append(names, p.Name)
	}
	return names
}

// Count returns the number of registered presets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presets)
}

func isPresetFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// LoadDirectory loads every YAML preset file in dir. A missing directory is
// not an error. Files that fail to load are skipped and reported together.
func (r *Registry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Errorf("reading directory %s: %w", dir, err)
	}

	loadErrors := NewMultiError()
	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := r.LoadFile(path); err != nil {
			loadErrors.Add(errors.Errorf("%s: %w", entry.Name(), err))
		}
	}
	return loadErrors.Err()
}

// LoadFile loads a single preset file, replacing any preset of the same name.
func (r *Registry) LoadFile(path string) error {
	p, err := LoadPresetFile(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if previous, ok := r.files[path]; ok && previous != p.Name {
		r.removeLocked(previous)
	}
	r.presets[p.Name] = p
	r.files[path] = p.Name

	r.logger.Debug().Str("preset", p.Name).Str("file", path).Msg("Preset loaded")
	return nil
}

// removeLocked drops a file-defined preset, restoring the built-in of the
// same name when there is one.
func (r *Registry) removeLocked(name string) {
	for _, p := range builtinPresets() {
		if p.Name == name {
			r.presets[name] = p
			return
		}
	}
	delete(r.presets, name)
}

// Reload resets the registry to the built-in presets and reloads the
// configured directory.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return errors.New("no directory configured for reload")
	}
	r.reset()
	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback function that is called when presets change.
func (r *Registry) SetOnChange(fn func(event string, name string)) {
	r.onChange = fn
}

// Watch starts watching the preset directory for changes.
func (r *Registry) Watch() error {
	if r.dir == "" {
		return errors.New("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})

	go r.watchLoop(watcher, r.stopChan)

	if err := watcher.Add(r.dir); err != nil {
		r.StopWatch()
		return errors.Errorf("watching directory %s: %w", r.dir, err)
	}

	r.logger.Info().Str("dir", r.dir).Msg("Watching preset directory")
	return nil
}

// Run watches the preset directory until ctx is done. A directory that does
// not exist is logged and not watched, matching LoadDirectory.
func (r *Registry) Run(ctx context.Context) error {
	if r.dir != "" {
		if info, err := os.Stat(r.dir); err != nil || !info.IsDir() {
			r.logger.Warn().Str("dir", r.dir).Msg("Preset directory not found, hot reload disabled")
			<-ctx.Done()
			return nil
		}
	}
	if err := r.Watch(); err != nil {
		return err
	}
	<-ctx.Done()
	r.StopWatch()
	return nil
}

func (r *Registry) watchLoop(watcher *fsnotify.Watcher, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isPresetFile(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn().Err(err).Msg("Preset watcher error")
		}
	}
}

func (r *Registry) handleFileChange(path, event string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn().Err(err).Str("file", path).Msg("Preset not reloaded")
		return
	}

	r.mu.RLock()
	name := r.files[path]
	r.mu.RUnlock()

	r.logger.Info().Str("preset", name).Str("event", event).Msg("Preset reloaded")
	if r.onChange != nil {
		r.onChange(event, name)
	}
}

func (r *Registry) handleFileRemove(path string) {
	r.mu.Lock()
	name, ok := r.files[path]
	if ok {
		delete(r.files, path)
		r.removeLocked(name)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.logger.Info().Str("preset", name).Msg("Preset removed")
	if r.onChange != nil {
		r.onChange("remove", name)
	}
}

// StopWatch stops watching the preset directory.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}
