// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// config holds the parts of galaxyctl's setup that are more
// comfortably expressed as a file than as flags: the alien server
// endpoint and credentials, plus the evaluation stack ceiling.
type config struct {
	Server    string `json:"server"`
	APIKey    string `json:"apiKey"`
	StackSize int64  `json:"stackSize"`
}

// loadConfig reads a YAML config file, returning a zero-value config
// (a purely offline, default-stack-size setup) when path is empty.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("galaxyctl: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("galaxyctl: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
