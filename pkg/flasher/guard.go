package flasher

import "strings"

// protectedPartitions are partitions the wipe command refuses to target.
// Erasing any of these can hard-brick a MediaTek device or destroy
// calibration data (nvram/nvdata hold IMEI and radio calibration; proinfo
// holds factory serials; preloader/lk/tee are the boot chain; seccfg and
// efuse gate secure boot). The external tool would happily erase them,
// which is exactly why the guard lives here.
var protectedPartitions = map[string]bool{
	"preloader":  true,
	"preloader2": true,
	"pgpt":       true,
	"sgpt":       true,
	"gpt":        true,
	"lk":         true,
	"lk2":        true,
	"lk_a":       true,
	"lk_b":       true,
	"tee1":       true,
	"tee2":       true,
	"tee_a":      true,
	"tee_b":      true,
	"vbmeta":     true,
	"vbmeta_a":   true,
	"vbmeta_b":   true,
	"seccfg":     true,
	"efuse":      true,
	"nvram":      true,
	"nvdata":     true,
	"proinfo":    true,
	"boot":       true,
	"boot_a":     true,
	"boot_b":     true,
	"recovery":   true,
}

// IsProtected reports whether a partition name is refused as a wipe target.
func IsProtected(name string) bool {
	return protectedPartitions[strings.ToLower(name)]
}
