// Package config loads the labelbench.toml run configuration.
//
// The file selects the algorithms to benchmark, the datasets each test runs
// on, the number of trials and the output options. Missing keys keep the
// values from [Default].
//
//	input_path  = "input"
//	output_path = "output"
//
//	[algorithms]
//	funcs = ["SAUF", "BFS"]
//	names = ["SAUF", "BFS"]
//
//	[averages]
//	datasets = ["3dpes", "hamlet"]
//	trials   = 10
package config

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/errors"
)

// DefaultFile is the configuration file looked up when no path is given.
const DefaultFile = "labelbench.toml"

// AllDatasets are the YACCLAB datasets checked by default.
var AllDatasets = []string{"3dpes", "fingerprints", "hamlet", "medical", "mirflickr", "test_random", "tobacco800"}

// Config is the full run configuration.
type Config struct {
	InputPath    string `toml:"input_path"`
	OutputPath   string `toml:"output_path"`
	WriteNLabels bool   `toml:"write_n_labels"`
	Workers      int    `toml:"workers"`

	Algorithms       AlgorithmList `toml:"algorithms"`
	MemoryAlgorithms AlgorithmList `toml:"memory_algorithms"`

	Check       CheckConfig  `toml:"check"`
	Averages    TimedConfig  `toml:"averages"`
	DensitySize TimedConfig  `toml:"density_size"`
	Memory      MemoryConfig `toml:"memory"`

	Archive ArchiveConfig `toml:"archive"`
}

// AlgorithmList pairs registry ids with display names, in order.
type AlgorithmList struct {
	Funcs []string `toml:"funcs"`
	Names []string `toml:"names"`
}

// CheckConfig configures the correctness check. The check has no perform
// switch: it runs at the start of every session that has algorithms.
type CheckConfig struct {
	Datasets []string `toml:"datasets"`
}

// TimedConfig configures a timed test (averages or density/size).
type TimedConfig struct {
	Perform     bool     `toml:"perform"`
	Datasets    []string `toml:"datasets"`
	Trials      int      `toml:"trials"`
	SaveMiddle  bool     `toml:"save_middle"`
	ColorLabels bool     `toml:"color_labels"`
}

// MemoryConfig configures the memory access test.
type MemoryConfig struct {
	Perform  bool     `toml:"perform"`
	Datasets []string `toml:"datasets"`
}

// ArchiveConfig selects where completed runs are stored.
// An empty Dir lets the CLI choose the user data directory.
type ArchiveConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	URL      string `toml:"url"`
	Database string `toml:"database"`
}

// Options converts the archive section to archive.Options.
func (a ArchiveConfig) Options() archive.Options {
	return archive.Options{Backend: a.Backend, Dir: a.Dir, URL: a.URL, Database: a.Database}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputPath:    "input",
		OutputPath:   "output",
		WriteNLabels: true,
		Check: CheckConfig{
			Datasets: clone(AllDatasets),
		},
		Averages: TimedConfig{
			Perform:  true,
			Datasets: []string{"3dpes", "fingerprints", "hamlet", "medical", "mirflickr", "tobacco800"},
			Trials:   1,
		},
		DensitySize: TimedConfig{
			Perform:  true,
			Datasets: []string{"test_random"},
			Trials:   1,
		},
		Memory: MemoryConfig{
			Perform:  true,
			Datasets: clone(AllDatasets),
		},
		Archive: ArchiveConfig{
			Backend: archive.BackendFile,
		},
	}
}

// Load reads the configuration at path on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err, "open config")
	}
	defer f.Close()
	return Read(f)
}

// Read decodes TOML from r on top of Default. Unknown keys are rejected.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Validate reports the first problem that must stop a run before any test.
func (c *Config) Validate() error {
	if err := c.Algorithms.validate("algorithms"); err != nil {
		return err
	}
	if c.Memory.Perform {
		if err := c.MemoryAlgorithms.validate("memory_algorithms"); err != nil {
			return err
		}
	}
	if c.Averages.Perform && c.Averages.Trials <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "averages.trials must be at least 1")
	}
	if c.DensitySize.Perform && c.DensitySize.Trials <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "density_size.trials must be at least 1")
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "workers cannot be negative")
	}
	if !validBackend(c.Archive.Backend) {
		return errors.New(errors.ErrCodeConfigInvalid, "unknown archive backend %q", c.Archive.Backend)
	}
	for _, list := range [][]string{c.Check.Datasets, c.Averages.Datasets, c.DensitySize.Datasets, c.Memory.Datasets} {
		for _, name := range list {
			if err := errors.ValidateDatasetName(name); err != nil {
				return errors.Wrap(errors.ErrCodeConfigInvalid, err, "dataset list")
			}
		}
	}
	return nil
}

func (l AlgorithmList) validate(section string) error {
	if len(l.Funcs) == 0 || len(l.Funcs) != len(l.Names) {
		return errors.New(errors.ErrCodeConfigInvalid,
			"%s: funcs and names must match in length and order and must not be empty", section)
	}
	return nil
}

func validBackend(name string) bool {
	if name == "" {
		return true
	}
	for _, b := range archive.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
