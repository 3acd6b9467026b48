package crypto

import "strings"

// Masking is a display-time transform only. It never changes stored
// values and is applied fresh on every read, unlike Anonymize which is
// a permanent state mutation.

// MaskName masks a name word by word, keeping the first and last
// letter of each word visible. Short words are fully or mostly starred
// rather than indexed out of range.
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	masked := make([]string, 0, len(words))
	for _, w := range words {
		r := []rune(w)
		switch {
		case len(r) == 1:
			masked = append(masked, w)
		case len(r) == 2:
			masked = append(masked, string(r[0])+"*")
		default:
			masked = append(masked, string(r[0])+strings.Repeat("*", len(r)-2)+string(r[len(r)-1]))
		}
	}
	return strings.Join(masked, " ")
}

// MaskContact masks a phone number or email address. Emails keep the
// first local character and the domain; phone numbers keep the first
// three and last four characters. Inputs of four characters or fewer
// are fully starred.
func MaskContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}
	if local, domain, ok := strings.Cut(contact, "@"); ok {
		r := []rune(local)
		if len(r) == 0 {
			return "*@" + domain
		}
		if len(r) <= 2 {
			return string(r[0]) + "*@" + domain
		}
		return string(r[0]) + strings.Repeat("*", len(r)-1) + "@" + domain
	}
	r := []rune(contact)
	switch {
	case len(r) <= 4:
		return strings.Repeat("*", len(r))
	case len(r) < 8:
		// Too short to show both ends without overlap.
		return string(r[:2]) + strings.Repeat("*", len(r)-2)
	default:
		return string(r[:3]) + strings.Repeat("*", len(r)-7) + string(r[len(r)-4:])
	}
}
