// Package blob selects a concrete blob store backend.
package blob

import (
	"context"
	"fmt"
	"os"

	"dentalcore/internal/blob/core"
	"dentalcore/internal/infra/blob/fs"
	"dentalcore/internal/infra/blob/memory"
	"dentalcore/internal/infra/blob/s3"
)

// Open selects a core.Store implementation using environment variables.
//
//	DENTALCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	DENTALCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in s3/store.go)
func Open(ctx context.Context) (core.Store, error) {
	driver := os.Getenv("DENTALCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(core.DriverFilesystem)
	}
	switch core.Driver(driver) {
	case core.DriverFilesystem:
		root := os.Getenv("DENTALCORE_BLOB_FS_ROOT")
		return fs.New(root)
	case core.DriverS3:
		return s3.OpenFromEnv(ctx)
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
