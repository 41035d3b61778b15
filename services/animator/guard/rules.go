// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guard

// The deny-lists below implement a strict policy: dangerous APIs are
// banned outright, importing them is already a violation, and anything
// the resolver cannot prove safe is treated as unsafe.

// allowedSubprocessBasenames are the only external executables a
// generated script may invoke.
var allowedSubprocessBasenames = map[string]bool{
	"ffmpeg":  true,
	"ffprobe": true,
}

// bannedImportModules are modules whose import alone is a violation.
var bannedImportModules = map[string]bool{
	"os":         true,
	"sys":        true,
	"pathlib":    true,
	"shutil":     true,
	"subprocess": true,
	"ctypes":     true,
	"importlib":  true,
	"inspect":    true,
}

// bannedFQNs are fully-qualified call targets that are always denied.
var bannedFQNs = map[string]bool{
	// os
	"os.remove":     true,
	"os.unlink":     true,
	"os.rmdir":      true,
	"os.removedirs": true,
	"os.rename":     true,
	"os.replace":    true,
	"os.system":     true,
	// shutil
	"shutil.rmtree":   true,
	"shutil.move":     true,
	"shutil.copy":     true,
	"shutil.copy2":    true,
	"shutil.copyfile": true,
	"shutil.copytree": true,
	// subprocess
	"subprocess.run":          true,
	"subprocess.Popen":        true,
	"subprocess.call":         true,
	"subprocess.check_call":   true,
	"subprocess.check_output": true,
	// metaprogramming
	"builtins.eval":           true,
	"builtins.exec":           true,
	"builtins.compile":        true,
	"__import__":              true,
	"importlib.import_module": true,
}

// subprocessFQNs are the banned targets that take an external command;
// they get the extra allow-list inspection instead of a flat deny.
var subprocessFQNs = map[string]bool{
	"subprocess.run":          true,
	"subprocess.Popen":        true,
	"subprocess.call":         true,
	"subprocess.check_call":   true,
	"subprocess.check_output": true,
	"os.system":               true,
}

// destructiveAttrNames are method names denied regardless of receiver.
// The receiver type cannot be resolved statically, so a false positive
// on a harmless .remove() is accepted.
var destructiveAttrNames = map[string]bool{
	"remove":  true,
	"unlink":  true,
	"rename":  true,
	"replace": true,
	"rmdir":   true,
	"rmtree":  true,
	"move":    true,
}

// pathWriteMethods are path-like write method names denied by name.
var pathWriteMethods = map[string]bool{
	"write_text":  true,
	"write_bytes": true,
}

// writeModeTokens mark an open() mode string as writing.
const writeModeTokens = "wxa+"
