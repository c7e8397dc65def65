package indicator

import (
	"path/filepath"
	"time"

	"github.com/temoto/vfd/internal/player"
	"github.com/temoto/vfd/internal/settings"
)

const (
	LedPower = "power"
	LedPlay  = "play"
	LedPause = "pause"
	LedHDMI  = "hdmi"
	LedCVBS  = "cvbs"
	LedEth   = "eth"
	LedWifi  = "wifi"
	LedSetup = "setup"
	LedApps  = "apps"
	LedUSB   = "usb"
	LedSD    = "sd"
	LedColon = "colon"
)

var SetupWindows = []string{
	"settings", "systeminfo", "systemsettings", "servicesettings", "pvrsettings",
	"playersettings", "mediasettings", "interfacesettings", "profiles", "skinsettings", "videossettings",
	"musicsettings", "appearancesettings", "picturessettings", "weathersettings", "gamesettings",
	"service-CoreELEC-Settings-mainWindow.xml", "service-CoreELEC-Settings-wizard.xml",
	"service-CoreELEC-Settings-getPasskey.xml",
	"service-LibreELEC-Settings-mainWindow.xml", "service-LibreELEC-Settings-wizard.xml",
	"service-LibreELEC-Settings-getPasskey.xml",
}

var AppsWindows = []string{"addonbrowser", "addonsettings", "addoninformation", "addon", "programs"}

const mountsValid = 2 * time.Second

// NewDefault builds standard openvfd indicator set.
// root prefixes all sysfs, dev and proc paths, empty in production.
func NewDefault(c *settings.Config, p player.Player, root string) *Set {
	path := func(s string) string { return filepath.Join(root, s) }
	self := NewSet(
		NewState(LedPower, NewIcon(true)),
		NewState(LedPlay, Playing{p}),
		NewState(LedPause, Paused{p}),
		NewState(LedHDMI, NewFileContains(path("/sys/class/amhdmitx/amhdmitx0/hpd_state"), "1")),
		NewState(LedCVBS, NewFileContains(path("/sys/class/display/mode"), "cvbs")),
		NewState(LedEth, NewFileContains(path("/sys/class/net/eth0/operstate"), "up", "unknown")),
		NewState(LedWifi, NewFileContains(path("/sys/class/net/wlan0/operstate"), "up")),
		NewState(LedSetup, Window{p, SetupWindows}),
		NewState(LedApps, Window{p, AppsWindows}),
		NewState(LedUSB, NewStoragePresent(path("/dev/sd"))),
		NewState(LedSD, NewStoragePresent(path("/dev/mmcblk"))),
	)
	self.colon = NewIcon(false)
	self.Add(NewState(LedColon, self.colon))
	if c.Indicator.Storage && c.Indicator.StorageIcon != "" {
		self.Replace(c.Indicator.StorageIcon,
			NewStorageMounted("rw", path("/proc/mounts"), mountsValid, "/dev/sd", "/dev/mmcblk"))
	}
	return self
}
