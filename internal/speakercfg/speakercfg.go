// Package speakercfg persists the DSSPEAKER_* speaker-configuration DWORD
// (spec.md §4.5, "Speaker config") across process runs. Path resolution is
// grounded on runtime_ipc.go's resolveSocketPath: prefer an XDG directory,
// fall back to a fixed path, no third-party config library.
package speakercfg

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dsoalgo/dsoalgo/ds"
)

const fileName = "speaker-config.json"

type document struct {
	Geometry uint32 `json:"geometry"`
}

func resolvePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "dsoalgo", fileName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "dsoalgo", fileName)
	}
	return filepath.Join(os.TempDir(), "dsoalgo-"+fileName)
}

// Load reads the persisted speaker configuration. Missing or unreadable
// state is not an error: it resolves to the DirectSound default (stereo).
func Load() ds.SpeakerGeometry {
	data, err := os.ReadFile(resolvePath())
	if err != nil {
		return ds.SpeakerGeometryStereo
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ds.SpeakerGeometryStereo
	}
	if doc.Geometry == 0 {
		return ds.SpeakerGeometryStereo
	}
	return ds.SpeakerGeometry(doc.Geometry)
}

// Save persists geometry for the next process to pick up via Load.
func Save(geometry ds.SpeakerGeometry) error {
	path := resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(document{Geometry: uint32(geometry)})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
