// Package cipher implements the fixed-shift substitution cipher used for
// messages addressed to the translator bot.
package cipher

// Encrypt shifts every ASCII letter of message forward by shift positions,
// wrapping within its own case. Non-letter characters are left untouched.
func Encrypt(message string, shift int) string {
	amount := ((shift % 26) + 26) % 26

	out := []rune(message)
	for i, r := range out {
		switch {
		case r >= 'A' && r <= 'Z':
			out[i] = 'A' + (r-'A'+rune(amount))%26
		case r >= 'a' && r <= 'z':
			out[i] = 'a' + (r-'a'+rune(amount))%26
		}
	}
	return string(out)
}

// Decrypt reverses Encrypt for the same shift.
func Decrypt(message string, shift int) string {
	return Encrypt(message, (26-(shift%26))%26)
}
