package noc

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"noctrace/src/misc"
)

// CommunicationInfo is the per-communication summary recorded in the run's
// binary dump (§6).
type CommunicationInfo struct {
	ID            string
	SourceTileID  int
	TargetTileID  int
	TransferSpans []Interval
}

// WireRange is the per-wire occupancy summary recorded in the run's binary
// dump (§6).
type WireRange struct {
	WireID    string
	Occupancy []Interval
}

// ReportName renders the run artifact's filename, following the teacher's
// label_mapping_schedule_path convention for naming a run's output file.
func ReportName(label, mapping, schedule, pathGenerator string) string {
	return fmt.Sprintf("output_info_%s_%s_%s_%s.txt", label, mapping, schedule, pathGenerator)
}

// WriteSummary writes the two-float-per-line artifact §6 describes: one line
// holding the wall clock seconds spent simulating and the simulated latency
// in milliseconds, separated by a space.
func WriteSummary(outDir, label, mapping, schedule, pathGenerator string, wallClockSeconds, simulatedLatencyMS float64) (string, error) {
	name := ReportName(label, mapping, schedule, pathGenerator)
	full := filepath.Join(outDir, name)
	f, err := os.Create(full)
	if err != nil {
		return "", misc.NewConfigError("create report file %s: %v", full, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%v %v\n", wallClockSeconds, simulatedLatencyMS); err != nil {
		return "", misc.NewConfigError("write report file %s: %v", full, err)
	}
	return full, nil
}

// DumpDetail gob-encodes the per-communication and per-wire detail behind a
// run, the idiomatic Go analogue of the original implementation's pickle
// dump (§6).
func DumpDetail(outPath string, comms []CommunicationInfo, wires []WireRange) error {
	f, err := os.Create(outPath)
	if err != nil {
		return misc.NewConfigError("create detail dump %s: %v", outPath, err)
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	payload := struct {
		Communications []CommunicationInfo
		Wires          []WireRange
	}{Communications: comms, Wires: wires}
	if err := enc.Encode(payload); err != nil {
		return misc.NewConfigError("encode detail dump %s: %v", outPath, err)
	}
	return nil
}

// CollectCommunicationInfo snapshots every communication's transfer history
// for DumpDetail.
func CollectCommunicationInfo(comms []*Communication) []CommunicationInfo {
	out := make([]CommunicationInfo, 0, len(comms))
	for _, c := range comms {
		out = append(out, CommunicationInfo{
			ID:            c.ID(),
			SourceTileID:  c.SourceTileID,
			TargetTileID:  c.TargetTileID,
			TransferSpans: c.TransferSpans(),
		})
	}
	return out
}

// CollectWireRanges snapshots every wire's occupancy history for
// DumpDetail.
func CollectWireRanges(wires []*Wire) []WireRange {
	out := make([]WireRange, 0, len(wires))
	for _, w := range wires {
		out = append(out, WireRange{WireID: w.ID(), Occupancy: w.Occupancy()})
	}
	return out
}
