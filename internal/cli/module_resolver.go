package cli

import (
	"path/filepath"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/utils"
)

// ModuleResolver settles the module path generated imports are rooted at
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// Resolve returns explicit when set. Otherwise it looks for the go.mod
// enclosing outputDir and builds the import path of outputDir inside that
// module. An empty result means no module was found.
func (r *ModuleResolver) Resolve(explicit, outputDir string) (string, error) {
	if explicit != "" {
		if err := utils.ValidateModulePath(explicit); err != nil {
			return "", errors.Wrap(errors.ConfigurationErrorCode, "invalid module path", err).
				WithSuggestion("Use a path like github.com/acme/app")
		}
		return explicit, nil
	}

	goModPath, err := utils.FindGoMod(outputDir)
	if err != nil {
		return "", nil
	}
	info, err := utils.ParseGoMod(goModPath)
	if err != nil {
		return "", errors.WrapConfigurationError(goModPath, "parse", err)
	}
	return r.BuildPackagePath(info.Module, filepath.Dir(info.Path), outputDir)
}

// BuildPackagePath builds the import path of dir inside the module rooted
// at moduleDir.
func (r *ModuleResolver) BuildPackagePath(moduleName, moduleDir, dir string) (string, error) {
	absModule, err := filepath.Abs(moduleDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", moduleDir, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", dir, err)
	}
	rel, err := filepath.Rel(absModule, absDir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve", dir, err)
	}

	importPath := filepath.ToSlash(rel)
	if importPath == "." {
		return moduleName, nil
	}
	return moduleName + "/" + importPath, nil
}
