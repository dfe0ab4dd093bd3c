package assemble

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/metalagman/firmgen/internal/features"
)

type idfComponent struct {
	Version      string    `yaml:"version"`
	Description  string    `yaml:"description"`
	Dependencies yaml.Node `yaml:"dependencies"`
}

var lcdDependencies = [][2]string{
	{"lvgl/lvgl", "^9.2.0"},
	{"esp_lcd_ili9341", "^1.0"},
	{"espressif/esp_lvgl_port", "^2.6.0"},
}

// componentManifest renders main/idf_component.yml. Dependencies keep their
// declaration order.
func componentManifest(boardName string, lcd bool) ([]byte, error) {
	deps := [][2]string{{"idf", ">=5.0"}}
	if lcd {
		deps = append(deps, lcdDependencies...)
	}

	mapping := yaml.Node{Kind: yaml.MappingNode}
	for _, d := range deps {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: d[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Value: d[1], Style: yaml.DoubleQuotedStyle},
		)
	}

	out, err := yaml.Marshal(idfComponent{
		Version:      "1.0.0",
		Description:  "Main application component for " + boardName,
		Dependencies: mapping,
	})
	if err != nil {
		return nil, fmt.Errorf("render idf_component.yml: %w", err)
	}
	return out, nil
}

func writeESPIDF(w *writer, p Project) error {
	lcd := features.UsesLCDHeader(p.Code)

	if err := w.render("CMakeLists.txt", "cmakelists.txt.tmpl", p); err != nil {
		return err
	}
	if err := w.render("main/CMakeLists.txt", "main_cmakelists.txt.tmpl", p); err != nil {
		return err
	}
	manifest, err := componentManifest(p.Platform.Name, lcd)
	if err != nil {
		return err
	}
	if err := w.write("main/idf_component.yml", manifest); err != nil {
		return err
	}
	if err := w.write("main/main.c", withNewline(p.Code)); err != nil {
		return err
	}
	if lcd {
		if err := w.render("main/"+features.LCDHeader, "lcd_config.h.tmpl", p); err != nil {
			return err
		}
	}

	sdkconfig, _, err := configFor(p, FileSdkconfig)
	if err != nil {
		return err
	}
	if err := w.write(FileSdkconfig, sdkconfig); err != nil {
		return err
	}
	target := p.Platform.Target
	if target == "" {
		target = "esp32s3"
	}
	return w.write("sdkconfig.defaults", fmt.Appendf(nil, "CONFIG_IDF_TARGET=%q\n", target))
}
