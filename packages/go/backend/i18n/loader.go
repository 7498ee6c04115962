package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// loadEmbedded decodes the bundles compiled into the binary.
func loadEmbedded() (map[LanguageCode]Bundle, error) {
	entries, err := fs.ReadDir(embeddedLocales, "locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}

	bundles := make(map[LanguageCode]Bundle, len(entries))
	for _, entry := range entries {
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", entry.Name(), err)
		}
		code, bundle, err := decodeBundle(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		bundles[code] = bundle
	}
	return bundles, nil
}

// LoadDir reads every supported bundle file in dir. Files are named after
// their language code: hi.json, pa.yaml, en.po. A missing directory yields
// no bundles.
func LoadDir(dir string) (map[LanguageCode][]Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[LanguageCode][]Bundle{}, nil
		}
		return nil, fmt.Errorf("read bundles dir: %w", err)
	}

	bundles := make(map[LanguageCode][]Bundle)
	for _, entry := range entries {
		if entry.IsDir() || !isBundleFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		code, bundle, err := decodeBundle(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		bundles[code] = append(bundles[code], bundle)
	}
	return bundles, nil
}

func isBundleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".po":
		return true
	default:
		return false
	}
}

func decodeBundle(name string, data []byte) (LanguageCode, Bundle, error) {
	ext := strings.ToLower(filepath.Ext(name))
	code := LanguageCode(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if code == "" {
		return "", nil, fmt.Errorf("bundle %s: missing language code", name)
	}

	switch ext {
	case ".json":
		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return code, TreeBundle(tree), nil
	case ".yaml", ".yml":
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return code, TreeBundle(tree), nil
	case ".po":
		return code, NewPoBundle(data), nil
	default:
		return "", nil, fmt.Errorf("bundle %s: unsupported format %q", name, ext)
	}
}
