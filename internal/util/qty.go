package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	unitPattern      = regexp.MustCompile(`(?i)(kg|szt\.?|sztuk|mb|m2|m²|rolk[ia]|rol\.?|pcs|µm|μm|um|mic)`)
	numberPattern    = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)`)
	withUnitPattern  = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)\s*(kg|szt\.?|sztuk|mb|m2|m²|rolk[ia]|rol\.?|pcs|µm|μm|um|mic)`)
	thousandsDot     = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandsComma   = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	thicknessPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)
)

type ParsedQty struct {
	Qty    *float64
	Unit   *string
	QtyRaw *string
}

// ParseQty reads a quantity such as "1 500 kg" or "12,5 szt" from a batch field.
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, " ", " ")

	qtyRaw := ""
	qtyToken := ""

	wm := withUnitPattern.FindAllStringSubmatch(line, -1)
	if len(wm) > 0 {
		last := wm[len(wm)-1]
		qtyRaw = strings.TrimSpace(last[1] + " " + last[2])
		qtyToken = strings.TrimSpace(last[1])
	} else {
		nm := numberPattern.FindAllStringSubmatch(line, -1)
		if len(nm) > 0 {
			last := nm[len(nm)-1]
			qtyRaw = strings.TrimSpace(last[1])
			qtyToken = strings.TrimSpace(last[1])
		}
	}

	var qtyPtr *float64
	if qtyToken != "" {
		if parsed, err := strconv.ParseFloat(normalizeNumericToken(qtyToken), 64); err == nil {
			qtyPtr = FloatPtr(parsed)
		}
	}

	var unitPtr *string
	if um := unitPattern.FindStringSubmatch(line); len(um) > 1 {
		unitPtr = StringPtr(normalizeUnit(um[1]))
	}

	var qtyRawPtr *string
	if qtyRaw != "" {
		qtyRawPtr = &qtyRaw
	}

	return ParsedQty{Qty: qtyPtr, Unit: unitPtr, QtyRaw: qtyRawPtr}
}

// ParseThickness reads a single layer thickness in micrometres ("12", "12,5 µm").
func ParseThickness(input string) (float64, bool) {
	m := thicknessPattern.FindStringSubmatch(strings.TrimSpace(input))
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatThickness joins the non-empty layer thicknesses as "12/50 μm".
func FormatThickness(layers []string) string {
	parts := make([]string, 0, len(layers))
	for _, l := range layers {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if v, ok := ParseThickness(l); ok {
			parts = append(parts, FormatNumber(v))
			continue
		}
		parts = append(parts, l)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "/") + " μm"
}

// FormatQty rewrites a batch quantity in canonical form ("1 000 kg" -> "1000 kg").
// Polish output uses a decimal comma. Input without a number is returned trimmed.
func FormatQty(input string, decimalComma bool) string {
	p := ParseQty(input)
	if p.Qty == nil {
		return strings.TrimSpace(input)
	}
	num := FormatNumber(*p.Qty)
	if decimalComma {
		num = strings.ReplaceAll(num, ".", ",")
	}
	if p.Unit == nil {
		return num
	}
	return num + " " + *p.Unit
}

func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "szt", "szt.", "sztuk", "pcs":
		return "szt"
	case "m2", "m²":
		return "m2"
	case "rolka", "rolki", "rol", "rol.":
		return "rol"
	case "µm", "μm", "um", "mic":
		return "μm"
	default:
		return u
	}
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if thousandsDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if thousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
