package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/populate/api"
)

// LoadDir reads every *.json, *.yaml and *.yml file under dir (recursively)
// as one content type definition and registers it. It returns the number of
// content types loaded.
func LoadDir(fsys billy.Filesystem, dir string, reg *MemoryRegistry) (int, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read schema dir %s: %w", dir, err)
	}

	count := 0
	for _, info := range infos {
		p := fsys.Join(dir, info.Name())
		if info.IsDir() {
			n, err := LoadDir(fsys, p, reg)
			if err != nil {
				return count, err
			}
			count += n
			continue
		}

		ct, err := LoadFile(fsys, p)
		if err != nil {
			return count, err
		}
		if ct == nil {
			continue // not a schema file
		}
		if err := reg.Register(ct); err != nil {
			return count, fmt.Errorf("register %s: %w", p, err)
		}
		count++
	}
	return count, nil
}

// LoadFile decodes one content type definition. Files with an unsupported
// extension yield (nil, nil).
func LoadFile(fsys billy.Filesystem, path string) (*api.ContentType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var ct api.ContentType
	switch ext {
	case ".json":
		err = json.Unmarshal(content, &ct)
	default:
		err = yaml.Unmarshal(content, &ct)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	if ct.UID == "" {
		return nil, fmt.Errorf("schema %s has no uid", path)
	}
	return &ct, nil
}
