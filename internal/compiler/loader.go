package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadManifest compiles a manifest from a .cue file, or from the CUE
// package in a directory.
func LoadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	ctx := cuecontext.New()
	var v cue.Value

	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("load manifest: no CUE instances in %s", path)
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, formatCUEError(inst.Err)
		}
		v = ctx.BuildInstance(inst)
	} else {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		v = ctx.CompileBytes(src, cue.Filename(path))
	}

	return CompileManifest(v)
}
