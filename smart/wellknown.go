package smart

import "strconv"

// wellKnownNames translates the most common ATA attribute IDs to
// libatasmart-style well-known names: conservative, not complete,
// attributes outside this table fall back to "attribute-<id>".
var wellKnownNames = map[int]string{
	1:   "raw-read-error-rate",
	3:   "spin-up-time",
	4:   "start-stop-count",
	5:   "reallocated-sector-count",
	7:   "seek-error-rate",
	9:   "power-on-hours",
	10:  "spin-retry-count",
	12:  "power-cycle-count",
	170: "available-reserved-space",
	171: "ssd-program-fail-count",
	172: "ssd-erase-fail-count",
	173: "ssd-wear-leveling-count",
	174: "unexpect-power-loss-count",
	177: "wear-leveling-count",
	179: "used-reserved-block-count-total",
	181: "program-fail-count-total",
	182: "erase-fail-count-total",
	183: "runtime-bad-block",
	184: "end-to-end-error",
	187: "reported-uncorrectable-errors",
	188: "command-timeout",
	190: "airflow-temperature-celsius",
	194: "temperature-celsius-2",
	196: "reallocation-event-count",
	197: "current-pending-sector",
	198: "offline-uncorrectable",
	199: "udma-crc-error-count",
	202: "data-address-mark-errors",
	231: "ssd-life-left",
	232: "available-reserved-space-2",
	233: "media-wearout-indicator",
	241: "total-lbas-written",
	242: "total-lbas-read",
}

// wellKnownUnits maps a subset of well-known attribute names to the unit
// their pretty value is expressed in, again mirroring libatasmart's
// built-in table.
var wellKnownUnits = map[string]Unit{
	"power-on-hours":           UnitMilliseconds,
	"power-cycle-count":        UnitNone,
	"reallocated-sector-count": UnitSectors,
	"current-pending-sector":   UnitSectors,
	"offline-uncorrectable":    UnitSectors,
	"airflow-temperature-celsius": UnitMilliKelvin,
	"temperature-celsius-2":       UnitMilliKelvin,
	"ssd-life-left":               UnitPercent,
	"media-wearout-indicator":     UnitPercent,
}

// WellKnownName resolves id to its well-known name, or "attribute-<id>" if
// the id is not in the translation table.
func WellKnownName(id int) string {
	if name, ok := wellKnownNames[id]; ok {
		return name
	}
	return attributeFallbackName(id)
}

func attributeFallbackName(id int) string {
	return "attribute-" + strconv.Itoa(id)
}

// UnitFor returns the display unit for a well-known attribute name,
// defaulting to UnitNone when the name carries no special unit.
func UnitFor(wellKnownName string) Unit {
	if u, ok := wellKnownUnits[wellKnownName]; ok {
		return u
	}
	return UnitNone
}
