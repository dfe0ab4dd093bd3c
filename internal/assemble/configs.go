package assemble

import (
	"strings"

	"github.com/metalagman/firmgen/internal/features"
	"github.com/metalagman/firmgen/internal/reconcile"
)

// Configuration file paths relative to the project root.
const (
	FileSdkconfig  = "sdkconfig"
	FilePlatformIO = "platformio.ini"
	FileLVConf     = "include/lv_conf.h"
)

// BuildConfigs returns the build configuration files of p with the font
// switches for fonts applied. ESP-IDF projects get sdkconfig; Arduino
// projects get platformio.ini and, when the code uses LVGL, lv_conf.h.
func BuildConfigs(p Project, fonts []int) (map[string][]byte, error) {
	out := map[string][]byte{}
	if p.Platform.IsESPIDF() {
		base, err := render("sdkconfig.tmpl", p)
		if err != nil {
			return nil, err
		}
		if len(fonts) > 0 {
			base = reconcile.Apply(base, fonts, reconcile.Sdkconfig)
		}
		out[FileSdkconfig] = base
		return out, nil
	}

	ini, err := render("platformio.ini.tmpl", platformIOData{
		Name:        p.Name,
		Board:       p.Platform.PIOBoard,
		PIOPlatform: pioPlatform(p),
		Libraries:   p.Libraries,
	})
	if err != nil {
		return nil, err
	}
	if len(fonts) > 0 {
		ini = reconcile.Apply(ini, fonts, reconcile.PlatformIO)
	}
	out[FilePlatformIO] = ini

	if features.UsesLVGL(p.Code) {
		conf, err := render("lv_conf.h.tmpl", p)
		if err != nil {
			return nil, err
		}
		out[FileLVConf] = reconcile.Apply(conf, fonts, reconcile.LVConf)
	}
	return out, nil
}

type platformIOData struct {
	Name        string
	Board       string
	PIOPlatform string
	Libraries   []string
}

func pioPlatform(p Project) string {
	if strings.HasPrefix(p.Platform.FQBN, "esp32:") || strings.Contains(strings.ToUpper(p.Platform.MCU), "ESP32") {
		return "espressif32"
	}
	return "atmelavr"
}

func configFor(p Project, rel string) ([]byte, bool, error) {
	if data, ok := p.Configs[rel]; ok {
		return data, true, nil
	}
	all, err := BuildConfigs(p, nil)
	if err != nil {
		return nil, false, err
	}
	data, ok := all[rel]
	return data, ok, nil
}
