package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultSlots is the number of recording slots on the board.
	DefaultSlots = 3
	// MaxSlots bounds the slot count a profile may request.
	MaxSlots = 16
)

const (
	inherited       = "inherited"
	profileSpecific = "profile-specific"
)

type DefinitionsConfig struct {
	Clips []ClipDefinition `mapstructure:"clips" yaml:"clips"`
}

type ClipDefinition struct {
	ID    string `mapstructure:"id" yaml:"id"`
	Label string `mapstructure:"label" yaml:"label"`
	Path  string `mapstructure:"path" yaml:"path"`
}

type ClipReference struct {
	Ref   string  `mapstructure:"ref" yaml:"ref"`
	Label *string `mapstructure:"label,omitempty" yaml:"label,omitempty"` // optional override
}

type GlobalsConfig struct {
	Output GlobalOutputConfig `mapstructure:"output" yaml:"output"`
	Store  GlobalStoreConfig  `mapstructure:"store" yaml:"store"`
}

type GlobalOutputConfig struct {
	RecordingsDirectory string `mapstructure:"recordings_directory" yaml:"recordings_directory"`
}

type GlobalStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type RootConfig struct {
	ActiveConfig             string                    `mapstructure:"active_config" yaml:"active_config"`
	Globals                  *GlobalsConfig            `mapstructure:"globals,omitempty" yaml:"globals,omitempty"`
	Audio                    *AudioConfig              `mapstructure:"audio,omitempty" yaml:"audio,omitempty"`
	Definitions              *DefinitionsConfig        `mapstructure:"definitions,omitempty" yaml:"definitions,omitempty"`
	Configs                  map[string]*ConfigProfile `mapstructure:"configs" yaml:"configs"`
	SupportedAudioExtensions []string                  `mapstructure:"supported_audio_extensions" yaml:"supported_audio_extensions"`
}

// Config is the resolved configuration of one profile.
type Config struct {
	Audio               AudioConfig  `mapstructure:"audio" yaml:"audio"`
	Slots               int          `mapstructure:"slots" yaml:"slots"`
	Clips               []Clip       `mapstructure:"clips" yaml:"clips"`
	Output              OutputConfig `mapstructure:"output" yaml:"output"`
	Store               StoreConfig  `mapstructure:"store" yaml:"store"`
	SupportedExtensions []string     `mapstructure:"-" yaml:"supported_audio_extensions"`

	// Internal field to track inheritance information for info command
	Inheritance *InheritanceInfo `mapstructure:"-" yaml:"-"`
}

type ConfigProfile struct {
	Audio  AudioConfig     `mapstructure:"audio" yaml:"audio"`
	Slots  int             `mapstructure:"slots" yaml:"slots"`
	Clips  []ClipReference `mapstructure:"clips" yaml:"clips"`
	Output OutputConfig    `mapstructure:"output" yaml:"output"`
	Store  StoreConfig     `mapstructure:"store" yaml:"store"`
}

type InheritanceInfo struct {
	Audio struct {
		Backend    string // "inherited" or "profile-specific"
		Source     string
		Quality    string
		SampleRate string
	}
	Slots  string
	Clips  string
	Output struct {
		Directory string
	}
	Store struct {
		Path string
	}
}

type AudioConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`         // "pipewire", "auto"
	Source     string `mapstructure:"source" yaml:"source"`           // capture node, empty = default
	Quality    string `mapstructure:"quality" yaml:"quality"`         // "high", "low"
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"` // overrides the quality preset rate
}

type Clip struct {
	Label string `mapstructure:"label" yaml:"label"`
	Path  string `mapstructure:"path" yaml:"path"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

var defaultExtensions = []string{"wav", "flac", "mp3", "ogg"}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Audio: AudioConfig{
			Backend: "auto",
			Quality: "high",
		},
		Slots: DefaultSlots,
		Output: OutputConfig{
			Directory: filepath.Join(home, "Audio", "Soundboard"),
		},
		Store: StoreConfig{
			Path: filepath.Join(home, ".local", "share", "soundboard", "soundboard.db"),
		},
		SupportedExtensions: append([]string(nil), defaultExtensions...),
	}
}

func LoadWithProfile(configFile, profile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	configName := profile
	if configName == "" {
		configName = rootConfig.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}

	selectedProfile, exists := rootConfig.Configs[configName]
	if !exists {
		return nil, fmt.Errorf("configuration profile '%s' not found", configName)
	}

	selectedConfig, err := convertProfileToConfig(selectedProfile, rootConfig.Definitions)
	if err != nil {
		return nil, fmt.Errorf("error resolving configuration profile '%s': %w", configName, err)
	}

	// Global audio settings fill whatever the profile leaves empty
	if rootConfig.Audio != nil {
		if selectedConfig.Audio.Backend == "" {
			selectedConfig.Audio.Backend = rootConfig.Audio.Backend
		}
		if selectedConfig.Audio.Source == "" {
			selectedConfig.Audio.Source = rootConfig.Audio.Source
		}
		if selectedConfig.Audio.Quality == "" {
			selectedConfig.Audio.Quality = rootConfig.Audio.Quality
		}
		if selectedConfig.Audio.SampleRate == 0 {
			selectedConfig.Audio.SampleRate = rootConfig.Audio.SampleRate
		}
	}

	// Merge with the default profile unless it is the one selected
	base := Default()
	if configName != "default" {
		if defaultProfile, exists := rootConfig.Configs["default"]; exists {
			defaultConfig, err := convertProfileToConfig(defaultProfile, rootConfig.Definitions)
			if err != nil {
				return nil, fmt.Errorf("error resolving default configuration: %w", err)
			}
			base = mergeConfigs(base, defaultConfig)
		}
	}
	selectedConfig = mergeConfigs(base, selectedConfig)

	// Global directories take precedence over any profile
	applyGlobals(selectedConfig, rootConfig.Globals)

	selectedConfig.SupportedExtensions = rootConfig.SupportedAudioExtensions
	if len(selectedConfig.SupportedExtensions) == 0 {
		selectedConfig.SupportedExtensions = append([]string(nil), defaultExtensions...)
	}

	selectedConfig.expandPaths()

	if err := Validate(selectedConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return selectedConfig, nil
}

// LoadOrDefault loads configFile when it exists and falls back to Default otherwise.
func LoadOrDefault(configFile, profile string) (*Config, error) {
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		if profile != "" {
			return nil, fmt.Errorf("profile '%s' requested but config file %s does not exist", profile, configFile)
		}
		cfg := Default()
		cfg.Inheritance = defaultInheritance()
		return cfg, nil
	}

	return LoadWithProfile(configFile, profile)
}

func applyGlobals(cfg *Config, globals *GlobalsConfig) {
	if globals == nil {
		return
	}
	if globals.Output.RecordingsDirectory != "" {
		cfg.Output.Directory = globals.Output.RecordingsDirectory
		cfg.Inheritance.Output.Directory = "global"
	}
	if globals.Store.Path != "" {
		cfg.Store.Path = globals.Store.Path
		cfg.Inheritance.Store.Path = "global"
	}
}

func (c *Config) expandPaths() {
	c.Output.Directory = expandPath(c.Output.Directory)
	c.Store.Path = expandPath(c.Store.Path)
	for i := range c.Clips {
		c.Clips[i].Path = expandPath(c.Clips[i].Path)
	}
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	// Create a new viper instance to avoid interfering with the global one
	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if _, ok := rootConfig.Configs[newActiveConfig]; !ok {
		return fmt.Errorf("configuration profile '%s' not found", newActiveConfig)
	}

	v.Set("active_config", newActiveConfig)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// convertProfileToConfig converts a ConfigProfile to Config by resolving clip references
func convertProfileToConfig(profile *ConfigProfile, definitions *DefinitionsConfig) (*Config, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile cannot be nil")
	}

	config := &Config{
		Audio:  profile.Audio,
		Slots:  profile.Slots,
		Output: profile.Output,
		Store:  profile.Store,
	}

	for i, clipRef := range profile.Clips {
		if clipRef.Ref == "" {
			return nil, fmt.Errorf("clips[%d]: 'ref' is required", i)
		}

		definition := findClipDefinition(definitions, clipRef.Ref)
		if definition == nil {
			return nil, fmt.Errorf("clips[%d]: reference '%s' not found in definitions", i, clipRef.Ref)
		}

		clip := Clip{
			Label: definition.Label,
			Path:  definition.Path,
		}
		if clipRef.Label != nil {
			clip.Label = *clipRef.Label
		}

		config.Clips = append(config.Clips, clip)
	}

	return config, nil
}

func findClipDefinition(definitions *DefinitionsConfig, id string) *ClipDefinition {
	if definitions == nil {
		return nil
	}
	for i := range definitions.Clips {
		if definitions.Clips[i].ID == id {
			return &definitions.Clips[i]
		}
	}
	return nil
}

// mergeConfigs implements the "Selection & Fallback" inheritance model:
// - Clips: a profile listing clips replaces the base list entirely, otherwise the base list is inherited
// - For all other settings (audio, slots, output, store), use profile value or fallback to base
func mergeConfigs(base, profile *Config) *Config {
	result := &Config{Inheritance: defaultInheritance()}

	if base != nil {
		result.Audio = base.Audio
		result.Slots = base.Slots
		result.Clips = append([]Clip(nil), base.Clips...)
		result.Output = base.Output
		result.Store = base.Store
		result.SupportedExtensions = base.SupportedExtensions
	}

	if profile == nil {
		return result
	}

	if profile.Audio.Backend != "" {
		result.Audio.Backend = profile.Audio.Backend
		result.Inheritance.Audio.Backend = profileSpecific
	}
	if profile.Audio.Source != "" {
		result.Audio.Source = profile.Audio.Source
		result.Inheritance.Audio.Source = profileSpecific
	}
	if profile.Audio.Quality != "" {
		result.Audio.Quality = profile.Audio.Quality
		result.Inheritance.Audio.Quality = profileSpecific
	}
	if profile.Audio.SampleRate != 0 {
		result.Audio.SampleRate = profile.Audio.SampleRate
		result.Inheritance.Audio.SampleRate = profileSpecific
	}

	if profile.Slots != 0 {
		result.Slots = profile.Slots
		result.Inheritance.Slots = profileSpecific
	}

	if len(profile.Clips) > 0 {
		result.Clips = append([]Clip(nil), profile.Clips...)
		result.Inheritance.Clips = profileSpecific
	}

	if profile.Output.Directory != "" {
		result.Output.Directory = profile.Output.Directory
		result.Inheritance.Output.Directory = profileSpecific
	}
	if profile.Store.Path != "" {
		result.Store.Path = profile.Store.Path
		result.Inheritance.Store.Path = profileSpecific
	}

	return result
}

func defaultInheritance() *InheritanceInfo {
	info := &InheritanceInfo{}
	info.Audio.Backend = inherited
	info.Audio.Source = inherited
	info.Audio.Quality = inherited
	info.Audio.SampleRate = inherited
	info.Slots = inherited
	info.Clips = inherited
	info.Output.Directory = inherited
	info.Store.Path = inherited
	return info
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// isValidAudioSource checks if a capture source name is usable as a PipeWire target
func isValidAudioSource(source string) bool {
	source = strings.TrimSpace(source)

	// Empty selects the default capture node
	if source == "" {
		return true
	}

	if strings.Contains(source, ":") {
		// Node names may contain colons, so the port is whatever follows the last one
		lastColonIndex := strings.LastIndex(source, ":")
		deviceName := strings.TrimSpace(source[:lastColonIndex])
		port := strings.TrimSpace(source[lastColonIndex+1:])

		return len(deviceName) > 0 && len(port) > 0
	}

	return !strings.ContainsAny(source, " \t")
}

// Validate checks a resolved configuration
func Validate(config *Config) error {
	switch strings.ToLower(config.Audio.Backend) {
	case "", "auto", "pipewire":
	default:
		return fmt.Errorf("audio.backend must be 'auto' or 'pipewire', got: %s", config.Audio.Backend)
	}

	switch strings.ToLower(config.Audio.Quality) {
	case "", "high", "low":
	default:
		return fmt.Errorf("audio.quality must be 'high' or 'low', got: %s", config.Audio.Quality)
	}

	if config.Audio.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate must be >= 0, got: %d", config.Audio.SampleRate)
	}

	if !isValidAudioSource(config.Audio.Source) {
		return fmt.Errorf("audio.source must be a valid PipeWire node or port, got: %s", config.Audio.Source)
	}

	if config.Slots < 1 || config.Slots > MaxSlots {
		return fmt.Errorf("slots must be between 1 and %d, got: %d", MaxSlots, config.Slots)
	}

	seenLabels := make(map[string]bool)
	for i, clip := range config.Clips {
		if clip.Label == "" {
			return fmt.Errorf("clips[%d] must have a label", i)
		}
		if seenLabels[clip.Label] {
			return fmt.Errorf("clips[%d]: duplicate label '%s'", i, clip.Label)
		}
		seenLabels[clip.Label] = true

		if clip.Path == "" {
			return fmt.Errorf("clips[%d] '%s' must have a path", i, clip.Label)
		}
	}

	if config.Output.Directory == "" {
		return fmt.Errorf("output.directory is required")
	}
	if config.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	return nil
}

// ValidateConfigurationFormat validates the configuration file format and returns parsed config
func ValidateConfigurationFormat(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(configFile)

	v.SetEnvPrefix("SOUNDBOARD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateDefinitions(rootConfig.Definitions); err != nil {
		return nil, fmt.Errorf("invalid definitions: %w", err)
	}

	if len(rootConfig.Configs) == 0 {
		return nil, fmt.Errorf("configs section is required")
	}

	for configName, configProfile := range rootConfig.Configs {
		if configProfile == nil {
			continue
		}
		if err := validateClipReferences(configProfile.Clips, rootConfig.Definitions); err != nil {
			return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
		}
	}

	return &rootConfig, nil
}

// validateDefinitions validates the definitions section
func validateDefinitions(definitions *DefinitionsConfig) error {
	// Clip definitions are optional: a board may only have recording slots
	if definitions == nil {
		return nil
	}

	seenIDs := make(map[string]bool)

	for i, def := range definitions.Clips {
		prefix := fmt.Sprintf("definitions.clips[%d]", i)

		if def.ID == "" {
			return fmt.Errorf("%s: 'id' is required", prefix)
		}
		if seenIDs[def.ID] {
			return fmt.Errorf("%s: duplicate ID '%s'", prefix, def.ID)
		}
		seenIDs[def.ID] = true

		if def.Label == "" {
			return fmt.Errorf("%s: 'label' is required", prefix)
		}
		if def.Path == "" {
			return fmt.Errorf("%s: 'path' is required", prefix)
		}
	}

	return nil
}

// validateClipReferences validates clip references in a config profile
func validateClipReferences(clips []ClipReference, definitions *DefinitionsConfig) error {
	for i, clipRef := range clips {
		prefix := fmt.Sprintf("clips[%d]", i)

		if clipRef.Ref == "" {
			return fmt.Errorf("%s: 'ref' is required", prefix)
		}

		if findClipDefinition(definitions, clipRef.Ref) == nil {
			return fmt.Errorf("%s: references undefined clip definition '%s'", prefix, clipRef.Ref)
		}

		if clipRef.Label != nil && strings.TrimSpace(*clipRef.Label) == "" {
			return fmt.Errorf("%s: label override cannot be empty", prefix)
		}
	}

	return nil
}
