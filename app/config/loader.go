package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads district site definitions from a directory of YAML files,
// one file per district.
type Loader struct {
	districtsDir string
}

func NewLoader(districtsDir string) *Loader {
	return &Loader{districtsDir: districtsDir}
}

// LoadAll loads every *.yml district definition, keyed and sorted by
// district code so pipeline runs iterate in a stable order.
func (l *Loader) LoadAll() ([]*District, error) {
	if _, err := os.Stat(l.districtsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("districts directory does not exist: %s", l.districtsDir)
	}

	files, err := filepath.Glob(filepath.Join(l.districtsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(l.districtsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)
	sort.Strings(files)

	var districts []*District
	for _, file := range files {
		district, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(district); err != nil {
			return nil, fmt.Errorf("invalid district %s: %w", file, err)
		}

		districts = append(districts, district)
		slog.Debug("District definition loaded", "code", district.Code, "name", district.Name, "variant", district.Site.Variant)
	}

	return districts, nil
}

func (l *Loader) loadFile(path string) (*District, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var district District
	if err := yaml.Unmarshal(data, &district); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	district.Code = strings.TrimSuffix(base, filepath.Ext(base))

	l.setDefaults(&district)

	return &district, nil
}

func (l *Loader) setDefaults(district *District) {
	if district.Site.Variant == "" {
		district.Site.Variant = VariantLink
	}
	if district.Site.BrTag == "" {
		district.Site.BrTag = "<br/>"
	}
	if district.Site.PagePattern == "" {
		switch district.Site.Variant {
		case VariantOnclick:
			district.Site.PagePattern = `goPage\((\d+)\)`
		default:
			district.Site.PagePattern = `startPage=([0-9]{1,5})`
		}
	}
	if district.Site.Variant == VariantPost && district.Site.PageField == "" {
		district.Site.PageField = "page"
	}
}

func (l *Loader) validate(district *District) error {
	if district.Name == "" {
		return fmt.Errorf("district name is required")
	}
	if district.ChatID == "" {
		return fmt.Errorf("chat_id is required")
	}
	if district.Site.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if district.Site.ListURL == "" {
		return fmt.Errorf("list_url is required")
	}
	if district.Site.ListSelector == "" {
		return fmt.Errorf("list_selector is required")
	}

	switch district.Site.Variant {
	case VariantLink, VariantPost:
		if district.Site.ContentSelector == "" {
			return fmt.Errorf("content_selector is required for variant %q", district.Site.Variant)
		}
	case VariantOnclick:
		if district.Site.ContentSelector == "" {
			return fmt.Errorf("content_selector is required for variant %q", district.Site.Variant)
		}
		if district.Site.OnclickPattern == "" {
			return fmt.Errorf("onclick_pattern is required for variant %q", district.Site.Variant)
		}
	case VariantBlog:
		if district.Site.ContentClass == "" {
			return fmt.Errorf("content_class is required for variant %q", district.Site.Variant)
		}
	default:
		return fmt.Errorf("unknown variant %q", district.Site.Variant)
	}

	return nil
}
