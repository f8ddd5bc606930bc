package sigenergy

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Modbus client configuration
const (
	PlantAddress = 247
)

// SigenModbusClient represents the Sigenergy Modbus client
type SigenModbusClient struct {
	client     modbus.Client
	handler    *modbus.RTUClientHandler
	tcpHandler *modbus.TCPClientHandler
}

// NewRTUClient creates a new Sigenergy Modbus client
// For TCP: use NewTCPClient
// For RTU: use NewRTUClient
func NewRTUClient(device string, baudRate int, slaveID byte) (*SigenModbusClient, error) {
	handler := modbus.NewRTUClientHandler(device)
	handler.BaudRate = baudRate
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = slaveID
	handler.Timeout = 1 * time.Second

	err := handler.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}

	return &SigenModbusClient{
		client:  modbus.NewClient(handler),
		handler: handler,
	}, nil
}

func NewTCPClient(address string, slaveID byte) (*SigenModbusClient, error) {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	handler.Timeout = 1 * time.Second

	err := handler.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}

	return &SigenModbusClient{
		client:     modbus.NewClient(handler),
		tcpHandler: handler,
	}, nil
}

// Close closes the Modbus connection
func (c *SigenModbusClient) Close() error {
	if c.handler != nil {
		return c.handler.Close()
	}
	if c.tcpHandler != nil {
		return c.tcpHandler.Close()
	}
	return nil
}

// SetSlaveID changes the slave ID for subsequent operations
func (c *SigenModbusClient) SetSlaveID(slaveID byte) {
	if c.handler != nil {
		c.handler.SlaveId = slaveID
	}
	if c.tcpHandler != nil {
		c.tcpHandler.SlaveId = slaveID
	}
}

// Helper functions for data conversion
func bytesToU16(data []byte) uint16 {
	return binary.BigEndian.Uint16(data)
}

func bytesToS16(data []byte) int16 {
	return int16(binary.BigEndian.Uint16(data))
}

func bytesToU32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

func bytesToS32(data []byte) int32 {
	return int32(binary.BigEndian.Uint32(data))
}

// Plant Running Information Structures (Section 5.1)
type PlantRunningInfo struct {
	SystemTime                      uint32  // Epoch seconds
	SystemTimeZone                  int16   // minutes
	EMSWorkMode                     uint16  // 0: Max self consumption, 1: AI Mode, 2: TOU, 7: Remote EMS
	GridSensorStatus                uint16  // 0: not connected, 1: connected
	GridSensorActivePower           float64 // kW
	GridSensorReactivePower         float64 // kVar
	OnOffGridStatus                 uint16  // 0: on grid, 1: off grid (auto), 2: off grid (manual)
	MaxActivePower                  float64 // kW
	MaxApparentPower                float64 // kVA
	ESSSOC                          float64 // %
	PlantPhaseAActivePower          float64 // kW
	PlantPhaseBActivePower          float64 // kW
	PlantPhaseCActivePower          float64 // kW
	PlantPhaseAReactivePower        float64 // kVar
	PlantPhaseBReactivePower        float64 // kVar
	PlantPhaseCReactivePower        float64 // kVar
	GeneralAlarm1                   uint16
	GeneralAlarm2                   uint16
	GeneralAlarm3                   uint16
	GeneralAlarm4                   uint16
	PlantActivePower                float64 // kW
	PlantReactivePower              float64 // kVar
	PhotovoltaicPower               float64 // kW
	ESSPower                        float64 // kW (<0: discharging, >0: charging)
	AvailableMaxActivePower         float64 // kW
	AvailableMinActivePower         float64 // kW
	AvailableMaxReactivePower       float64 // kVar
	AvailableMinReactivePower       float64 // kVar
	ESSAvailableMaxChargingPower    float64 // kW
	ESSAvailableMaxDischargingPower float64 // kW
	PlantRunningState               uint16
	ESSRatedEnergyCapacity          float64 // kWh
	ESSChargeOffSOC                 float64 // %
	ESSDischargeOffSOC              float64 // %
	ESSSOH                          float64 // %
}

// ReadPlantRunningInfo reads plant running information (slave address 247)
func (c *SigenModbusClient) ReadPlantRunningInfo() (*PlantRunningInfo, error) {
	c.SetSlaveID(PlantAddress)

	// Read main block (30000-30051, 52 registers)
	data, err := c.client.ReadInputRegisters(30000, 52)
	if err != nil {
		return nil, fmt.Errorf("failed to read plant running info: %v", err)
	}

	info := &PlantRunningInfo{
		SystemTime:                      bytesToU32(data[0:4]),
		SystemTimeZone:                  bytesToS16(data[4:6]),
		EMSWorkMode:                     bytesToU16(data[6:8]),
		GridSensorStatus:                bytesToU16(data[8:10]),
		GridSensorActivePower:           float64(bytesToS32(data[10:14])) / 1000.0,
		GridSensorReactivePower:         float64(bytesToS32(data[14:18])) / 1000.0,
		OnOffGridStatus:                 bytesToU16(data[18:20]),
		MaxActivePower:                  float64(bytesToU32(data[20:24])) / 1000.0,
		MaxApparentPower:                float64(bytesToU32(data[24:28])) / 1000.0,
		ESSSOC:                          float64(bytesToU16(data[28:30])) / 10.0,
		PlantPhaseAActivePower:          float64(bytesToS32(data[30:34])) / 1000.0,
		PlantPhaseBActivePower:          float64(bytesToS32(data[34:38])) / 1000.0,
		PlantPhaseCActivePower:          float64(bytesToS32(data[38:42])) / 1000.0,
		PlantPhaseAReactivePower:        float64(bytesToS32(data[42:46])) / 1000.0,
		PlantPhaseBReactivePower:        float64(bytesToS32(data[46:50])) / 1000.0,
		PlantPhaseCReactivePower:        float64(bytesToS32(data[50:54])) / 1000.0,
		GeneralAlarm1:                   bytesToU16(data[54:56]),
		GeneralAlarm2:                   bytesToU16(data[56:58]),
		GeneralAlarm3:                   bytesToU16(data[58:60]),
		GeneralAlarm4:                   bytesToU16(data[60:62]),
		PlantActivePower:                float64(bytesToS32(data[62:66])) / 1000.0,
		PlantReactivePower:              float64(bytesToS32(data[66:70])) / 1000.0,
		PhotovoltaicPower:               float64(bytesToS32(data[70:74])) / 1000.0,
		ESSPower:                        float64(bytesToS32(data[74:78])) / 1000.0,
		AvailableMaxActivePower:         float64(bytesToU32(data[78:82])) / 1000.0,
		AvailableMinActivePower:         float64(bytesToU32(data[82:86])) / 1000.0,
		AvailableMaxReactivePower:       float64(bytesToU32(data[86:90])) / 1000.0,
		AvailableMinReactivePower:       float64(bytesToU32(data[90:94])) / 1000.0,
		ESSAvailableMaxChargingPower:    float64(bytesToU32(data[94:98])) / 1000.0,
		ESSAvailableMaxDischargingPower: float64(bytesToU32(data[98:102])) / 1000.0,
		PlantRunningState:               bytesToU16(data[102:104]),
	}

	// Read additional ESS data (30083-30087)
	data2, err := c.client.ReadInputRegisters(30083, 5)
	if err == nil {
		info.ESSRatedEnergyCapacity = float64(bytesToU32(data2[0:4])) / 100.0
		info.ESSChargeOffSOC = float64(bytesToU16(data2[4:6])) / 10.0
		info.ESSDischargeOffSOC = float64(bytesToU16(data2[6:8])) / 10.0
		info.ESSSOH = float64(bytesToU16(data2[8:10])) / 10.0
	}

	return info, nil
}
