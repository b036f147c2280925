package mold

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"
)

// MaskType names a known data format with masking rules.
type MaskType string

const (
	MaskSSN   MaskType = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskEmail MaskType = "email" // alice@example.com -> a***@example.com
	MaskPhone MaskType = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskType = "card"  // 4111111111111111 -> ************1111
	MaskIP    MaskType = "ip"    // 192.168.1.100 -> 192.168.xxx.xxx
	MaskUUID  MaskType = "uuid"  // 550e8400-e29b-... -> 550e8400-****-****-****-************
	MaskIBAN  MaskType = "iban"  // GB82WEST12345698765432 -> GB82**************5432
	MaskName  MaskType = "name"  // John Smith -> J*** S****
)

// Masker hides the sensitive part of a value while keeping its format.
type Masker interface {
	Mask(value string) string
}

// MaskFunc adapts a function to the Masker interface.
type MaskFunc func(value string) string

// Mask implements Masker.
func (f MaskFunc) Mask(value string) string { return f(value) }

var maskers = map[MaskType]Masker{
	MaskSSN:   MaskFunc(maskSSN),
	MaskEmail: MaskFunc(maskEmail),
	MaskPhone: MaskFunc(maskPhone),
	MaskCard:  MaskFunc(maskCard),
	MaskIP:    MaskFunc(maskIP),
	MaskUUID:  MaskFunc(maskUUID),
	MaskIBAN:  MaskFunc(maskIBAN),
	MaskName:  MaskFunc(maskName),
}

// Mask is a processor that masks string values of a known format.
type Mask struct {
	Type   MaskType
	masker Masker
}

// NewMask returns a mask processor for t.
func NewMask(t MaskType) (*Mask, error) {
	m, ok := maskers[t]
	if !ok {
		return nil, fmt.Errorf("%w: mask type %q", ErrInvalidTag, t)
	}
	return &Mask{Type: t, masker: m}, nil
}

// Process implements Processor.
func (m *Mask) Process(value any, _ *ProcessorContext) (any, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return value, nil
	}
	return m.masker.Mask(s), nil
}

func stars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("*", n)
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func maskSSN(v string) string {
	d := digitsOf(v)
	if len(d) < 4 {
		return stars(len(v))
	}
	return "***-**-" + d[len(d)-4:]
}

func maskEmail(v string) string {
	at := strings.LastIndex(v, "@")
	if at < 1 {
		return stars(len(v))
	}
	return v[:1] + "***" + v[at:]
}

func maskPhone(v string) string {
	d := digitsOf(v)
	if len(d) < 4 {
		return stars(len(v))
	}
	last := d[len(d)-4:]
	switch {
	case len(d) >= 10 && strings.HasPrefix(v, "("):
		return "(***) ***-" + last
	case len(d) >= 10:
		return "***-***-" + last
	}
	return "***-" + last
}

func maskCard(v string) string {
	d := digitsOf(v)
	if len(d) < 4 {
		return stars(len(v))
	}
	last := d[len(d)-4:]

	sep := ""
	switch {
	case strings.Contains(v, " "):
		sep = " "
	case strings.Contains(v, "-"):
		sep = "-"
	default:
		return stars(len(d)-4) + last
	}
	groups := make([]string, (len(d)-1)/4)
	for i := range groups {
		groups[i] = "****"
	}
	return strings.Join(append(groups, last), sep)
}

func maskIP(v string) string {
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return stars(len(v))
	}
	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.%d.xxx.xxx", b[0], b[1])
	}
	b := addr.As16()
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x:%02x%02x:xxxx:xxxx:xxxx:xxxx",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7])
}

func maskUUID(v string) string {
	parts := strings.Split(v, "-")
	if len(parts) != 5 {
		return stars(len(v))
	}
	return parts[0] + "-****-****-****-************"
}

func maskIBAN(v string) string {
	if len(v) <= 8 {
		return stars(len(v))
	}
	return v[:4] + stars(len(v)-8) + v[len(v)-4:]
}

func maskName(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + stars(len(r)-1)
	}
	return strings.Join(words, " ")
}
