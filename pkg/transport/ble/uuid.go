package ble

import "tinygo.org/x/bluetooth"

// The chat service is Nordic UART compatible: one write characteristic
// carrying outbound frames to the device, one notify characteristic
// delivering inbound frames.
var (
	serviceUUID = bluetooth.ServiceUUIDNordicUART
	// writeUUID is the peer's RX: we write outbound frames here.
	writeUUID = bluetooth.CharacteristicUUIDUARTRX
	// notifyUUID is the peer's TX: inbound frames arrive as notifications.
	notifyUUID = bluetooth.CharacteristicUUIDUARTTX
)
