package lcd

import (
	"strconv"

	"github.com/banshee-data/groundstation/internal/rssi"
)

// Fixed screen text.
const (
	ReadingLabel = "Input: "
	ReadingUnit  = " dB"
	PausedLabel  = "PAUSED"
)

// ShowReading clears the display and draws the reading on the first row and
// its tone on the second.
func ShowReading(d Display, r rssi.Reading) error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.SetCursor(0, 0); err != nil {
		return err
	}
	if err := d.Print(ReadingLabel + strconv.Itoa(r.RSSI) + ReadingUnit); err != nil {
		return err
	}
	if err := d.SetCursor(0, 1); err != nil {
		return err
	}
	return d.Print(strconv.Itoa(r.ToneHz))
}

// ShowPaused writes the paused marker over the start of the second row. The
// first row is left as the last reading drew it.
func ShowPaused(d Display) error {
	if err := d.SetCursor(0, 1); err != nil {
		return err
	}
	return d.Print(PausedLabel)
}
