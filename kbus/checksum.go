package kbus

// Checksum is the XOR of every byte in data. The receiver recomputes it over
// the same range and silently drops telegrams that do not match.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}
