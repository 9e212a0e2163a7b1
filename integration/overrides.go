package integration

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/miretskiy/linesim/simulator"
)

// ParameterDescriptor describes a config value that can be overridden
// without editing the topology file.
type ParameterDescriptor struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"` // "int", "float" or "string"
	CurrentValue interface{} `json:"currentValue"`
	Min          *float64    `json:"min,omitempty"`
	Max          *float64    `json:"max,omitempty"`
	Description  string      `json:"description"`
}

// Parameters lists the overridable values of a config: the seed fields and
// every station's processing time and worker capacity.
func Parameters(config simulator.SimConfig) []ParameterDescriptor {
	limits := config.Limits
	if limits.MaxTotalWorkers <= 0 || limits.MaxItems <= 0 || limits.MaxProcessingTime <= 0 {
		limits = simulator.DefaultLimits()
	}
	one := 1.0
	maxWorkers := float64(limits.MaxTotalWorkers)
	maxItems := float64(limits.MaxItems)
	maxTime := limits.MaxProcessingTime

	params := []ParameterDescriptor{
		{
			Name:         "totalWorkers",
			Type:         "int",
			CurrentValue: config.Seed.TotalWorkers,
			Min:          &one,
			Max:          &maxWorkers,
			Description:  "Workers shared by all stations each tick.",
		},
		{
			Name:         "itemCount",
			Type:         "int",
			CurrentValue: config.Seed.ItemCount,
			Min:          &one,
			Max:          &maxItems,
			Description:  "Items placed in the initial station's backlog before the first tick.",
		},
		{
			Name:         "initialStation",
			Type:         "string",
			CurrentValue: config.Seed.InitialStation,
			Description:  "Station that receives the seeded batch.",
		},
	}

	for _, sc := range config.Stations {
		params = append(params,
			ParameterDescriptor{
				Name:         "station." + sc.Name + ".processingTime",
				Type:         "float",
				CurrentValue: sc.ProcessingTime,
				Max:          &maxTime,
				Description:  fmt.Sprintf("Ticks an item stays in process at %s.", sc.Name),
			},
			ParameterDescriptor{
				Name:         "station." + sc.Name + ".maxWorkers",
				Type:         "int",
				CurrentValue: sc.MaxWorkers,
				Min:          &one,
				Description:  fmt.Sprintf("Most workers %s can use in one tick.", sc.Name),
			})
	}
	return params
}

// ApplyOverrides returns a copy of config with the named parameters replaced.
// Keys are the names reported by Parameters; values may be numbers or
// strings. The result is not validated.
func ApplyOverrides(config simulator.SimConfig, params map[string]interface{}) (simulator.SimConfig, error) {
	if len(params) == 0 {
		return config, nil
	}

	out := config
	out.Stations = append([]simulator.StationConfig(nil), config.Stations...)
	out.Links = append([]simulator.LinkConfig(nil), config.Links...)

	// Deterministic order so the first bad key is always the same one
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := params[key]
		switch {
		case key == "totalWorkers":
			val, err := parseIntParam(raw)
			if err != nil {
				return config, fmt.Errorf("totalWorkers: %w", err)
			}
			out.Seed.TotalWorkers = val

		case key == "itemCount":
			val, err := parseIntParam(raw)
			if err != nil {
				return config, fmt.Errorf("itemCount: %w", err)
			}
			out.Seed.ItemCount = val

		case key == "initialStation":
			out.Seed.InitialStation = fmt.Sprint(raw)

		case strings.HasPrefix(key, "station."):
			if err := applyStationOverride(out.Stations, key, raw); err != nil {
				return config, err
			}

		default:
			return config, fmt.Errorf("unknown parameter %q", key)
		}
	}
	return out, nil
}

func applyStationOverride(stations []simulator.StationConfig, key string, raw interface{}) error {
	rest := strings.TrimPrefix(key, "station.")
	dot := strings.LastIndex(rest, ".")
	if dot <= 0 {
		return fmt.Errorf("malformed station parameter %q (want station.<name>.<field>)", key)
	}
	name, field := rest[:dot], rest[dot+1:]

	for i := range stations {
		if stations[i].Name != name {
			continue
		}
		switch field {
		case "processingTime":
			val, err := parseFloatParam(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			stations[i].ProcessingTime = val
		case "maxWorkers":
			val, err := parseIntParam(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			stations[i].MaxWorkers = val
		default:
			return fmt.Errorf("unknown station field %q", field)
		}
		return nil
	}
	return fmt.Errorf("%s: unknown station %q", key, name)
}

// ParseOverrides turns key=value pairs (as given on the command line) into a
// parameter map for ApplyOverrides.
func ParseOverrides(pairs []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed override %q (want key=value)", pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

// Helper functions for parameter parsing
func parseIntParam(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected a whole number, got %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("expected a whole number, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

func parseFloatParam(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
