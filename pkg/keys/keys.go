// Package keys maps local file paths to object keys and back.
//
// Whether a path denotes a file or a directory is decided by its extension
// alone, never by a stat: download targets may not exist yet and remote
// "directories" have no entry of their own.
package keys

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"example.com/ss3/pkg/errs"
)

// PathKind is the cheap file/directory classification of a path or key.
type PathKind int

const (
	Directory PathKind = iota
	File
)

func (k PathKind) String() string {
	if k == File {
		return "file"
	}
	return "directory"
}

// Extension returns the lower-cased extension of the last path element
// without the dot. A leading dot does not start an extension, so ".DS_Store"
// has none.
func Extension(p string) string {
	name := FileName(p)
	name = strings.TrimPrefix(name, ".")
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// FileName returns the last element of a slash or OS separated path, or ""
// when there is none.
func FileName(p string) string {
	p = strings.TrimRight(filepath.ToSlash(p), "/")
	if p == "" || p == "." || p == ".." {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

// Classify reports File when the path has an extension, Directory otherwise.
func Classify(p string) PathKind {
	if Extension(p) != "" {
		return File
	}
	return Directory
}

// DestinationKey computes the object key a local file is uploaded to.
//
// When renamable is set and sourceFile and destPrefix carry the same
// extension (case-insensitive), destPrefix is the full target key. Otherwise
// the path of sourceFile relative to baseDir (or its bare file name when
// baseDir is empty) is joined onto destPrefix.
func DestinationKey(baseDir, sourceFile, destPrefix string, renamable bool) (string, error) {
	name := FileName(sourceFile)
	if name == "" {
		return "", errs.InvalidPath(sourceFile)
	}
	if renamable {
		srcExt, dstExt := Extension(sourceFile), Extension(destPrefix)
		if srcExt != "" && srcExt == dstExt {
			return strings.TrimLeft(destPrefix, "/"), nil
		}
	}
	rel := name
	if baseDir != "" {
		if r, err := filepath.Rel(baseDir, sourceFile); err == nil && !outside(r) {
			rel = filepath.ToSlash(r)
		}
	}
	key := path.Join(destPrefix, rel)
	return strings.TrimLeft(key, "/"), nil
}

// outside reports whether a filepath.Rel result climbs out of its base. Names
// that merely start with ".." such as "..cfg" stay inside.
func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// DestinationPath computes where objectKey lands under baseDir when baseKey
// is downloaded. objectKey must start with baseKey; anything else means the
// caller queued a key outside its own prefix, and DestinationPath panics.
func DestinationPath(baseKey, objectKey, baseDir string) string {
	if !strings.HasPrefix(objectKey, baseKey) {
		panic(fmt.Sprintf("keys.DestinationPath: base key %q is not a prefix of object key %q", baseKey, objectKey))
	}
	rel := strings.TrimPrefix(objectKey[len(baseKey):], "/")
	return filepath.Join(baseDir, filepath.FromSlash(rel))
}
