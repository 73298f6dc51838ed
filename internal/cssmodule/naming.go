// Package cssmodule scopes CSS class names per file and loads stylesheets as
// JavaScript modules that inject their rules and export the class mapping.
package cssmodule

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Target identifies one class in one stylesheet.
type Target struct {
	// Path of the stylesheet relative to the source root, slash separated.
	Path string
	// Local is the class name as written in the stylesheet.
	Local string
}

var placeholder = regexp.MustCompile(`\[(local|name|ext|hash)(?::(base64|hex))?(?::(\d+))?\]`)

// Interpolate expands a class name template such as "[local]--[hash:base64:7]".
// Unknown placeholders are left untouched. The result is always a valid CSS
// identifier.
func Interpolate(pattern string, target Target) string {
	name := placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		parts := placeholder.FindStringSubmatch(m)
		switch parts[1] {
		case "local":
			return target.Local
		case "name":
			base := filepath.Base(filepath.FromSlash(target.Path))
			return strings.TrimSuffix(base, filepath.Ext(base))
		case "ext":
			return filepath.Ext(target.Path)
		default:
			length := 0
			if parts[3] != "" {
				length, _ = strconv.Atoi(parts[3])
			}
			return digest(target, parts[2], length)
		}
	})

	return sanitize(name)
}

// digest hashes the stylesheet path and local name so equal class names in
// different files never collide.
func digest(target Target, encoding string, length int) string {
	sum := xxhash.Sum64String(target.Path + "\x00" + target.Local)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], sum)

	var out string
	if encoding == "base64" {
		out = base64.RawURLEncoding.EncodeToString(buf[:])
	} else {
		out = hex.EncodeToString(buf[:])
	}

	if length > 0 && length < len(out) {
		out = out[:length]
	}
	return out
}

var invalidIdent = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitize(name string) string {
	name = invalidIdent.ReplaceAllString(name, "-")
	if name == "" {
		return "_"
	}

	switch {
	case name[0] >= '0' && name[0] <= '9':
		return "_" + name
	case name[0] == '-' && (len(name) == 1 || name[1] == '-' || (name[1] >= '0' && name[1] <= '9')):
		return "_" + name
	}
	return name
}
