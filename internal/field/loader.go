package field

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFromDirectory reads every *.yaml / *.yml file under dirPath into a
// FieldList. Unreadable or unparseable files are reported as ValidationErrors
// alongside whatever loaded cleanly; only a failed directory walk aborts.
func LoadFromDirectory(dirPath string) ([]ListWithFile, []ValidationError) {
	var lists []ListWithFile
	var errs []ValidationError

	walkErr := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to read file: %v", err),
			})
			return nil
		}

		var list FieldList
		if err := yaml.Unmarshal(data, &list); err != nil {
			errs = append(errs, ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to parse YAML: %v", err),
			})
			return nil
		}

		lists = append(lists, ListWithFile{List: &list, File: path})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, ValidationError{
			File:    dirPath,
			Message: fmt.Sprintf("failed to read directory: %v", walkErr),
		})
		return nil, errs
	}

	return lists, errs
}
