package hal

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Profile gates which optional tasks the orchestrator starts, scaled to the
// detected board's resources. A sensing/rendering/config pipeline always
// runs; the profile only decides whether netif RX runs alongside it.
type Profile string

const (
	ProfileMinimal  Profile = "minimal"  // single core, no netif
	ProfileStandard Profile = "standard" // netif RX enabled
	ProfileMock     Profile = "mock"     // host dev build, everything mocked
)

// BoardInfo describes the detected target.
type BoardInfo struct {
	Name     string
	GPIOChip string
	CPUCores int
	Profile  Profile
}

// GPIOChipName auto-detects the Linux GPIO character-device chip by reading
// /sys/bus/gpio/devices/*/label, the same heuristic the teacher HAL used to
// disambiguate the Pi 4's BCM2835 controller from the Pi 5's RP1 southbridge.
// Falls back to gpiochip0 when detection fails (e.g. on a non-SBC dev host).
func GPIOChipName() string {
	for _, chip := range []string{"gpiochip0", "gpiochip4"} {
		labelPath := fmt.Sprintf("/sys/bus/gpio/devices/%s/label", chip)
		data, err := os.ReadFile(labelPath)
		if err != nil {
			continue
		}
		label := strings.TrimSpace(string(data))
		if strings.Contains(label, "pinctrl-rp1") || strings.Contains(label, "pinctrl-bcm2") {
			return chip
		}
	}
	return "gpiochip0"
}

// DetectBoard reports the running board's profile and GPIO chip. It never
// fails: an undetectable board degrades to ProfileMinimal rather than
// blocking boot.
func DetectBoard() BoardInfo {
	cores := runtime.NumCPU()

	if runtime.GOOS != "linux" {
		return BoardInfo{Name: "dev-host", GPIOChip: "", CPUCores: cores, Profile: ProfileMock}
	}

	chip := GPIOChipName()
	if _, err := os.Stat("/dev/" + chip); err != nil {
		return BoardInfo{Name: "unknown-linux", GPIOChip: chip, CPUCores: cores, Profile: ProfileMinimal}
	}

	profile := ProfileMinimal
	if cores >= 2 {
		profile = ProfileStandard
	}
	return BoardInfo{Name: "linux-sbc", GPIOChip: chip, CPUCores: cores, Profile: profile}
}
