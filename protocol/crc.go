package protocol

// CRC algorithm constants.
const (
	// CRC16Polynomial is the reflected CRC-16/MODBUS feedback constant (0xA001)
	CRC16Polynomial = 0xA001

	// CRC16InitialValue is the CRC-16 initial register value
	CRC16InitialValue = 0xFFFF

	// BitsPerByte is the number of shift iterations per input byte
	BitsPerByte = 8
)

// CRC16 computes the CRC-16/MODBUS checksum of data.
//
// Parameters:
//   - Initial value: CRC16InitialValue
//   - Right shift with feedback CRC16Polynomial when the low bit is set
//   - No final XOR
func CRC16(data []byte) uint16 {
	return updateCRC16(CRC16InitialValue, data)
}

// frameCRC computes the frame checksum over code||payload without concatenating.
func frameCRC(code byte, payload []byte) uint16 {
	crc := updateCRC16(CRC16InitialValue, []byte{code})
	return updateCRC16(crc, payload)
}

func updateCRC16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < BitsPerByte; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ CRC16Polynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
