package fsutil

import (
	"path/filepath"
	"strings"
)

// binaryExtensions lists extensions whose files are never scanned as text.
// Keys are lower-case and include the leading dot.
var binaryExtensions = map[string]struct{}{
	// Executables and libraries
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".com": {},
	".o": {}, ".obj": {}, ".a": {}, ".lib": {}, ".wasm": {},
	// Bytecode
	".class": {}, ".jar": {}, ".war": {}, ".pyc": {}, ".pyo": {}, ".beam": {},
	// Archives
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".xz": {},
	".7z": {}, ".rar": {}, ".zst": {}, ".iso": {}, ".dmg": {},
	// Images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".tif": {}, ".tiff": {}, ".webp": {}, ".psd": {},
	// Audio and video
	".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {}, ".mp4": {}, ".avi": {},
	".mov": {}, ".mkv": {}, ".webm": {},
	// Fonts
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
	// Documents and databases
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {},
	".pptx": {}, ".db": {}, ".sqlite": {}, ".sqlite3": {},
}

// IsBinaryPath reports whether path has an extension from the binary denylist.
// The check is case-insensitive and never opens the file; a path without an
// extension is treated as text.
func IsBinaryPath(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	_, ok := binaryExtensions[strings.ToLower(ext)]
	return ok
}
