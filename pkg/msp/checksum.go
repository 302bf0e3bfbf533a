package msp

// CRC8DVBS2Poly is the CRC8-DVB-S2 polynomial used by V2 frames.
const CRC8DVBS2Poly byte = 0xd5

// XOR computes the V1 checksum: XOR of all bytes.
func XOR(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// CRC8DVBS2Update feeds one byte into a CRC8-DVB-S2 accumulator.
func CRC8DVBS2Update(crc, b byte) byte {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = (crc << 1) ^ CRC8DVBS2Poly
		} else {
			crc <<= 1
		}
	}
	return crc
}

// CRC8DVBS2 computes the V2 checksum over data.
// MSB-first, initial value 0, no reflection.
func CRC8DVBS2(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = CRC8DVBS2Update(crc, b)
	}
	return crc
}
