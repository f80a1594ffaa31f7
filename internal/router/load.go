package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadTable builds the table from the built-in routes plus any declared in
// the YAML file at path. An empty path yields the built-in table.
//
//	routes:
//	  - path: /favourites
//	    name: Favourites
//	    meta:
//	      requiresAuth: true
func LoadTable(path string) (*Table, error) {
	routes := Routes()
	if path == "" {
		return NewTable(routes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse routes file %s: %w", path, err)
	}

	return NewTable(append(routes, file.Routes...))
}
