package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pslkit/psl-test-adapter/framework"

	"golang.org/x/exp/slices"
)

// WorkspaceFile is where a workspace lists the names of its selected environments.
const WorkspaceFile = ".vscode/environment.json"

type workspaceSelection struct {
	Environments []string `json:"environments"`
}

type environmentsFile struct {
	Environments []Config `json:"environments"`
}

// Resolver finds the environments selected for a source file.
type Resolver struct {
	environmentsFile string
	logger           framework.Logger
}

// NewResolver creates a Resolver that reads environment definitions from the given file.
func NewResolver(environmentsFile string, logger framework.Logger) *Resolver {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Resolver{environmentsFile: environmentsFile, logger: logger}
}

// ResolveEnvironments returns the definitions of the environments selected by the nearest
// workspace file above path, in the order they are selected. Names without a definition are
// skipped. No workspace file, or no selected names, gives an empty result and no error.
func (r *Resolver) ResolveEnvironments(ctx context.Context, path string) ([]Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selectionPath, ok := findWorkspaceFile(filepath.Dir(path))
	if !ok {
		r.logger.Printf("No %s found above %s", WorkspaceFile, path)
		return nil, nil
	}
	var selection workspaceSelection
	if err := readJSONOrYAML(selectionPath, &selection); err != nil {
		return nil, err
	}
	if len(selection.Environments) == 0 {
		return nil, nil
	}

	all, err := LoadConfigs(r.environmentsFile)
	if err != nil {
		return nil, err
	}
	var ret []Config
	for _, name := range selection.Environments {
		i := slices.IndexFunc(all, func(c Config) bool { return c.Name == name })
		if i < 0 {
			r.logger.Printf("Environment %q selected in %s is not defined", name, selectionPath)
			continue
		}
		ret = append(ret, all[i])
	}
	return ret, nil
}

// LoadConfigs reads every environment definition from a global environments file.
func LoadConfigs(path string) ([]Config, error) {
	if path == "" {
		return nil, errors.New("no environments file configured")
	}
	var file environmentsFile
	if err := readJSONOrYAML(path, &file); err != nil {
		return nil, err
	}
	return file.Environments, nil
}

func readJSONOrYAML(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := ParseJSONOrYAML(data, target); err != nil {
		return fmt.Errorf("malformed %s: %w", path, err)
	}
	return nil
}

func findWorkspaceFile(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, filepath.FromSlash(WorkspaceFile))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
