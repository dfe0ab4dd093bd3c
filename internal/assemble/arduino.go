package assemble

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type sketchProject struct {
	DefaultFQBN string `yaml:"default_fqbn"`
	DefaultPort string `yaml:"default_port,omitempty"`
}

func writeArduino(w *writer, p Project) error {
	if err := w.write(p.Name+".ino", withNewline(p.Code)); err != nil {
		return err
	}

	for _, rel := range []string{FilePlatformIO, FileLVConf} {
		data, ok, err := configFor(p, rel)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := w.write(rel, data); err != nil {
			return err
		}
	}

	sketch, err := yaml.Marshal(sketchProject{DefaultFQBN: fqbn(p), DefaultPort: p.Toolchain.Port})
	if err != nil {
		return fmt.Errorf("render sketch.yaml: %w", err)
	}
	return w.write("sketch.yaml", sketch)
}
