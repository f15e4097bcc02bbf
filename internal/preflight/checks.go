package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mangarecap/internal/services"
)

var tempDir = os.TempDir

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes free.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, %s recommended", humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// FreeBytes reports the space available to unprivileged users at path.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// CheckOutputDirectory verifies the output's parent directory accepts writes.
func CheckOutputDirectory(output string) Result {
	result := CheckDirectoryAccess("Output directory", filepath.Dir(output))
	if !result.Passed {
		return result
	}
	result.Detail = fmt.Sprintf("%s (writable)", filepath.Dir(output))
	return result
}

// ValidateInput ensures the document or image folder exists and is readable.
func ValidateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Fatal("preflight", "validate input", fmt.Sprintf("%s does not exist", path), nil)
		}
		return services.Fatal("preflight", "validate input", "stat input", err)
	}
	mode := uint32(unix.R_OK)
	if info.IsDir() {
		mode |= unix.X_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return services.Fatal("preflight", "validate input", fmt.Sprintf("%s is not readable", path), err)
	}
	return nil
}

// ValidateOutput ensures output can be created: its parent exists (created if
// missing) and is writable, and output itself is not a directory.
func ValidateOutput(output string) error {
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return services.Fatal("preflight", "validate output", fmt.Sprintf("%s is a directory", output), nil)
	}
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Fatal("preflight", "validate output", "create output directory", err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return services.Fatal("preflight", "validate output", fmt.Sprintf("%s is not writable", dir), err)
	}
	return nil
}
