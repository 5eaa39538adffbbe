package storage

import (
	"errors"
	"io/fs"
	"os"
)

// sqliteSidecars are the files SQLite keeps next to the main database in WAL and rollback modes.
var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

// SQLiteDiskUsage returns the bytes used by the database at path and its sidecar files.
// Files that do not exist count as zero.
func SQLiteDiskUsage(path string) (int64, error) {
	if path == "" || path == ":memory:" {
		return 0, nil
	}
	paths := make([]string, 0, len(sqliteSidecars)+1)
	paths = append(paths, path)
	for _, suffix := range sqliteSidecars {
		paths = append(paths, path+suffix)
	}

	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total, nil
}
