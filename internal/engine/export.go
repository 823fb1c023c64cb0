package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"archon/internal/errors"
)

// ExportReport writes any tool result as indented JSON. A path ending in
// .gz gets gzip-compressed on the way out.
func ExportReport(result interface{}, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(errors.InternalError, "encode report", err)
	}
	data = append(data, '\n')

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.InternalError, fmt.Sprintf("create %s", path), err)
	}

	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		if _, err := zw.Write(data); err != nil {
			f.Close()
			return errors.Wrap(errors.InternalError, "compress report", err)
		}
		if err := zw.Close(); err != nil {
			f.Close()
			return errors.Wrap(errors.InternalError, "finish compressed report", err)
		}
		return f.Close()
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(errors.InternalError, fmt.Sprintf("write %s", path), err)
	}
	return f.Close()
}
