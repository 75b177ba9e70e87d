package version

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/oriel-video/oriel/constant"
	"github.com/oriel-video/oriel/key"
	"github.com/oriel-video/oriel/style"
	"github.com/oriel-video/oriel/util"
)

// Notify displays a terminal alert if a more recent stable application version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable("Checking if new version is available...")
	version, err := Latest()
	erase()
	if err != nil {
		return
	}
	if comp, err := Compare(version, constant.Version); err == nil && comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(style.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/oriel-video/oriel/releases/tag/v"+version),
	)
}
