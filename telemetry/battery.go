// Package telemetry reads the live battery state from a plant's Modbus
// interface so a solve can be seeded with the battery's actual charge
// instead of an assumed one, adapting the sigenergy plant client to the
// units the scheduling core works in.
package telemetry

import (
	"fmt"

	"github.com/devskill-org/gridplan/sigenergy"
	"github.com/devskill-org/gridplan/units"
)

// BatterySnapshot is the live state of one battery, read at solve time.
type BatterySnapshot struct {
	ChargeLevel units.WattHour // state of charge, in energy terms
	Capacity    units.WattHour
}

// plantInfoReader is the slice of SigenModbusClient that ReadBattery needs,
// narrowed so tests can substitute a fake without a real Modbus connection.
type plantInfoReader interface {
	ReadPlantRunningInfo() (*sigenergy.PlantRunningInfo, error)
	Close() error
}

// Reader reads battery snapshots from a Sigenergy plant over Modbus.
type Reader struct {
	client plantInfoReader
}

// NewTCPReader connects to a plant controller over Modbus TCP.
func NewTCPReader(address string) (*Reader, error) {
	client, err := sigenergy.NewTCPClient(address, sigenergy.PlantAddress)
	if err != nil {
		return nil, fmt.Errorf("connecting to plant at %s: %w", address, err)
	}
	return &Reader{client: client}, nil
}

// NewRTUReader connects to a plant controller over Modbus RTU.
func NewRTUReader(device string, baudRate int) (*Reader, error) {
	client, err := sigenergy.NewRTUClient(device, baudRate, sigenergy.PlantAddress)
	if err != nil {
		return nil, fmt.Errorf("connecting to plant at %s: %w", device, err)
	}
	return &Reader{client: client}, nil
}

// Close releases the underlying Modbus connection.
func (r *Reader) Close() error {
	return r.client.Close()
}

// ReadBattery reads the plant's aggregate ESS state of charge and rated
// capacity and converts them to an energy-valued snapshot.
func (r *Reader) ReadBattery() (BatterySnapshot, error) {
	info, err := r.client.ReadPlantRunningInfo()
	if err != nil {
		return BatterySnapshot{}, fmt.Errorf("reading plant running info: %w", err)
	}

	capacity := units.WattHour(info.ESSRatedEnergyCapacity * 1000)
	charge := units.WattHour(info.ESSSOC / 100.0 * float64(capacity))

	return BatterySnapshot{ChargeLevel: charge, Capacity: capacity}, nil
}
