package telemetry

import (
	"testing"

	"github.com/devskill-org/gridplan/sigenergy"
)

type fakePlantReader struct {
	info *sigenergy.PlantRunningInfo
	err  error
}

func (f *fakePlantReader) ReadPlantRunningInfo() (*sigenergy.PlantRunningInfo, error) {
	return f.info, f.err
}

func (f *fakePlantReader) Close() error { return nil }

func TestReadBatteryConvertsSOCAndCapacity(t *testing.T) {
	fake := &fakePlantReader{info: &sigenergy.PlantRunningInfo{
		ESSRatedEnergyCapacity: 24.0, // kWh
		ESSSOC:                 62.5, // percent
	}}
	r := &Reader{client: fake}

	snapshot, err := r.ReadBattery()
	if err != nil {
		t.Fatalf("ReadBattery: %v", err)
	}
	if snapshot.Capacity != 24000 {
		t.Errorf("Capacity = %v, want 24000 Wh", snapshot.Capacity)
	}
	wantCharge := 0.625 * 24000
	if float64(snapshot.ChargeLevel) != wantCharge {
		t.Errorf("ChargeLevel = %v, want %v", snapshot.ChargeLevel, wantCharge)
	}
}

func TestReadBatteryPropagatesError(t *testing.T) {
	fake := &fakePlantReader{err: fmtErr("modbus timeout")}
	r := &Reader{client: fake}

	if _, err := r.ReadBattery(); err == nil {
		t.Errorf("expected error to propagate")
	}
}

type fmtErr string

func (e fmtErr) Error() string { return string(e) }
