package importer

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ImportFS imports every CSV and XLSX file under root in fsys. Each dataset
// is named after its file without the extension. Files that fail to import
// are logged and skipped.
func ImportFS(fsys fs.FS, root string) ([]Result, error) {
	var results []Result
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := FormatOf(p); err != nil {
			return nil
		}
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()

		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		res, err := Import(name, p, f)
		if err != nil {
			logger.Warn("skipping file", "path", p, "error", err)
			return nil
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return results, nil
}
