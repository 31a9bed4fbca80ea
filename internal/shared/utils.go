// Package shared provides small helpers shared by the server and the CLI.
package shared

// WipeByteArray overwrites b with zeros. Used to drop passwords read from
// the terminal once they have been sent.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
