package misc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topology names the interconnect shape a Config may request.
type Topology string

const (
	TopologyMesh  Topology = "mesh"
	TopologyTorus Topology = "torus"
)

// Config bundles the external, consumed configuration of §6: grid shape,
// buffer/bandwidth sizing, and the strategy names that select mapping,
// scheduling, and routing policies. Parsing of the hardware-description file
// itself is out of scope (§1); Config is what that parse is expected to
// produce.
type Config struct {
	ImageNum        int      `yaml:"image_num"`
	NocTopology     Topology `yaml:"noc_topology"`
	TileArrayRow    int      `yaml:"tile_array_row"`
	TileArrayCol    int      `yaml:"tile_array_col"`
	InputBufferSize int64    `yaml:"input_buffer_size"`
	OutputBufferSize int64   `yaml:"output_buffer_size"`
	BandWidth       float64  `yaml:"band_width"`
	MappingStrategy string   `yaml:"mapping_strategy"`
	ScheduleStrategy string  `yaml:"schedule_strategy"`
	TransparentFlag bool     `yaml:"transparent_flag"`
	PathGenerator   string   `yaml:"path_generator"`
	TaskConfigPathList []string `yaml:"task_config_path_list"`
}

// LPSolverConfig is the parsed form of a "cvxopt@α,β,SOLVER,norm|max,float|integer"
// path_generator value (§6, §4.5).
type LPSolverConfig struct {
	Alpha      float64
	Beta       float64
	Solver     string
	Objective  string // "norm" or "max"
	Domain     string // "float" or "integer"
}

// DefaultConfig returns the default values named in §6 (only image_num has a
// documented default; the rest must be supplied).
func DefaultConfig() *Config {
	return &Config{
		ImageNum: 1,
	}
}

// LoadConfigFile reads a YAML hardware-description file into a Config,
// applying defaults for omitted fields before validating it.
func LoadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("read config file %s: %v", path, err)
	}
	return LoadConfigBytes(raw)
}

// LoadConfigBytes parses YAML bytes into a Config and validates it.
func LoadConfigBytes(raw []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, NewConfigError("parse config: %v", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every invariant §6/§7 place on the configuration. It never
// panics; every violation is a *SimError of kind ErrKindConfig.
func (c *Config) Validate() error {
	if c.ImageNum <= 0 {
		return NewConfigError("image_num must be positive, got %d", c.ImageNum)
	}
	if c.NocTopology != TopologyMesh && c.NocTopology != TopologyTorus {
		return NewConfigError("noc_topology %q is not supported", c.NocTopology)
	}
	if c.TileArrayRow <= 0 || c.TileArrayCol <= 0 {
		return NewConfigError(
			"tile_array_row/tile_array_col must be positive, got (%d, %d)",
			c.TileArrayRow, c.TileArrayCol,
		)
	}
	if c.InputBufferSize <= 0 || c.OutputBufferSize <= 0 {
		return NewConfigError(
			"input_buffer_size/output_buffer_size must be positive, got (%d, %d)",
			c.InputBufferSize, c.OutputBufferSize,
		)
	}
	if c.BandWidth <= 0 {
		return NewConfigError("band_width must be positive, got %v", c.BandWidth)
	}
	if _, err := ParsePathGenerator(c.PathGenerator); err != nil {
		return err
	}
	if c.MappingStrategy == "" {
		return NewConfigError("mapping_strategy must be set")
	}
	if c.ScheduleStrategy == "" {
		return NewConfigError("schedule_strategy must be set")
	}
	return nil
}

// ParsePathGenerator validates a path_generator string, returning the parsed
// LP solver configuration when it is an "cvxopt@..." value, or nil otherwise.
func ParsePathGenerator(value string) (*LPSolverConfig, error) {
	switch value {
	case "naive", "west_first", "north_last", "negative_first",
		"adaptive", "greedy", "dijkstra", "astar":
		return nil, nil
	}
	if !strings.HasPrefix(value, "cvxopt@") {
		return nil, NewConfigError("path_generator %q is not supported", value)
	}
	params := strings.Split(strings.TrimPrefix(value, "cvxopt@"), ",")
	if len(params) != 5 {
		return nil, NewConfigError(
			"path_generator %q must have form cvxopt@alpha,beta,solver,norm|max,float|integer", value,
		)
	}
	alpha, err := strconv.ParseFloat(params[0], 64)
	if err != nil {
		return nil, NewConfigError("path_generator %q: invalid alpha: %v", value, err)
	}
	beta, err := strconv.ParseFloat(params[1], 64)
	if err != nil {
		return nil, NewConfigError("path_generator %q: invalid beta: %v", value, err)
	}
	objective := params[3]
	if objective != "norm" && objective != "max" {
		return nil, NewConfigError("path_generator %q: objective must be norm or max", value)
	}
	domain := params[4]
	if domain != "float" && domain != "integer" {
		return nil, NewConfigError("path_generator %q: domain must be float or integer", value)
	}
	return &LPSolverConfig{
		Alpha:     alpha,
		Beta:      beta,
		Solver:    params[2],
		Objective: objective,
		Domain:    domain,
	}, nil
}

// IsLP reports whether the configured path generator selects the LP-backed
// scheduler variant.
func (c *Config) IsLP() bool {
	return strings.HasPrefix(c.PathGenerator, "cvxopt@")
}

// String renders the config the way the teacher's FileDumper output does --
// one key=value per line -- for the run's options.txt-equivalent artifact.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "image_num=%d\n", c.ImageNum)
	fmt.Fprintf(&b, "noc_topology=%s\n", c.NocTopology)
	fmt.Fprintf(&b, "tile_array_row=%d\n", c.TileArrayRow)
	fmt.Fprintf(&b, "tile_array_col=%d\n", c.TileArrayCol)
	fmt.Fprintf(&b, "input_buffer_size=%d\n", c.InputBufferSize)
	fmt.Fprintf(&b, "output_buffer_size=%d\n", c.OutputBufferSize)
	fmt.Fprintf(&b, "band_width=%v\n", c.BandWidth)
	fmt.Fprintf(&b, "mapping_strategy=%s\n", c.MappingStrategy)
	fmt.Fprintf(&b, "schedule_strategy=%s\n", c.ScheduleStrategy)
	fmt.Fprintf(&b, "transparent_flag=%v\n", c.TransparentFlag)
	fmt.Fprintf(&b, "path_generator=%s\n", c.PathGenerator)
	return b.String()
}
