package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// zonesFile is the on-disk shape of the multi-zone configuration:
//
//	zones:
//	  - state: TX
//	    zone: "19"
//	    county: "21"
//	  - state: IL
//	    zone: "15"
type zonesFile struct {
	Zones []ZoneConfig `yaml:"zones"`
}

// LoadZonesFile reads a YAML file listing the forecast zones to monitor.
func LoadZonesFile(path string) ([]ZoneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f zonesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Zones) == 0 {
		return nil, fmt.Errorf("%s lists no zones", path)
	}
	for i, z := range f.Zones {
		if z.State == "" || z.Zone == "" {
			return nil, fmt.Errorf("%s: zone entry %d missing state or zone", path, i)
		}
	}
	return f.Zones, nil
}
