// Package reconcile partitions a pasted list of PIDs against an inventory
// snapshot into identifiers that are already tracked and identifiers that
// need new placeholder records.
package reconcile

import (
	"strings"

	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/pid"
)

// Result is the outcome of one reconciliation run. It is recomputed whenever
// either the pasted text or the inventory snapshot changes and is never
// persisted.
type Result struct {
	// Found and Missing partition the parsed input: every parsed identifier
	// lands in exactly one of the two, in input order, duplicates included.
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
	// FoundDevices[i] is the device matched by Found[i].
	FoundDevices []model.Device `json:"foundDevices"`
	// Collisions lists normalized PIDs carried by more than one device in
	// the snapshot. This should not happen given the store's uniqueness
	// rules; when it does, matching is last-write-wins over the snapshot
	// iteration order and the collision is surfaced here as a warning.
	Collisions []string `json:"collisions,omitempty"`
}

// ParseList splits a pasted block of text into normalized identifier tokens.
// Tokens are separated by any run of newlines, commas, or semicolons. Tokens
// that normalize to the empty string are dropped. Order is preserved and
// duplicates are retained so that counts reported to the operator match what
// was pasted.
func ParseList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ';'
	})

	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := pid.Normalize(f); n != "" {
			ids = append(ids, n)
		}
	}
	return ids
}

// Reconcile classifies each parsed identifier as present in or absent from
// the inventory snapshot. Devices with an empty PID are excluded from the
// index; they cannot match anything. The invariant
// len(Found)+len(Missing) == len(ids) always holds.
func Reconcile(ids []string, devices []model.Device) Result {
	index := make(map[string]model.Device)
	var collisions []string
	for _, d := range devices {
		key := pid.Normalize(d.PIDNumber)
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			collisions = append(collisions, key)
		}
		index[key] = d
	}

	res := Result{
		Found:      make([]string, 0, len(ids)),
		Missing:    make([]string, 0),
		Collisions: collisions,
	}
	for _, id := range ids {
		if d, ok := index[id]; ok {
			res.Found = append(res.Found, id)
			res.FoundDevices = append(res.FoundDevices, d)
		} else {
			res.Missing = append(res.Missing, id)
		}
	}
	return res
}

// PlaceholderDevices materializes the missing partition as device-creation
// payloads: one record per identifier, same order, no deduplication. The
// store's own duplicate rejection is the backstop if the operator pasted an
// identifier twice.
func PlaceholderDevices(missing []string) []model.Device {
	devices := make([]model.Device, len(missing))
	for i, id := range missing {
		devices[i] = model.Device{
			PIDNumber:    id,
			SerialNumber: "",
			AssetID:      model.AssetIDUnknown,
			DeviceType:   model.DeviceTypeDefault,
			Status:       model.StatusUnresolved,
		}
	}
	return devices
}
