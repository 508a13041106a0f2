package tracker

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		Audio    AudioPreferences
		MIDI     MIDIPreferences `yaml:"midi"`
		YmlError error           `yaml:"-"`
	}

	AudioPreferences struct {
		SampleRate int
		BufferSize int // frames per device buffer
		Workers    int
	}

	MIDIPreferences struct {
		InputPrefix   string // open the first MIDI input whose name starts with this
		MonitorSample int    // sample slot played by MIDI notes
	}
)

//go:embed preferences.yml
var defaultPreferencesYaml []byte

func loadDefaultPreferences() Preferences {
	var preferences Preferences
	err := yaml.UnmarshalStrict(defaultPreferencesYaml, &preferences)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal preferences: %w", err))
	}
	return preferences
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "torque", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.UnmarshalStrict(bytes, target)
	return true, err
}

// MakePreferences returns the default preferences, overridden by the user's
// preferences.yml if there is one. A broken user file is reported in
// YmlError.
func MakePreferences() Preferences {
	preferences := loadDefaultPreferences()
	exists, err := ReadCustomConfigYml("preferences.yml", &preferences)
	if exists {
		preferences.YmlError = err
	}
	return preferences
}

// EngineConfig returns the engine configuration of the preferences.
func (p Preferences) EngineConfig() Config {
	return Config{
		SampleRate: p.Audio.SampleRate,
		BufferSize: p.Audio.BufferSize,
		Workers:    p.Audio.Workers,
	}
}
