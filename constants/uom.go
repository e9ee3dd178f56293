package constants

import "strings"

// Canonical units of measure emitted on line items.
const (
	UOMEach  = "EA"
	UOMPiece = "PC"
	UOMKilo  = "KG"
	UOMTon   = "TON"
	UOMMeter = "MTR"
	UOMSet   = "SET"
	UOMBox   = "BOX"
	UOMPack  = "PACK"
	UOMUnit  = "UNIT"
)

var uomSynonyms = map[string]string{
	"EA":        UOMEach,
	"EACH":      UOMEach,
	"NO":        UOMEach,
	"NOS":       UOMEach,
	"PC":        UOMPiece,
	"PCS":       UOMPiece,
	"PIECE":     UOMPiece,
	"PIECES":    UOMPiece,
	"KG":        UOMKilo,
	"KGS":       UOMKilo,
	"KILOGRAM":  UOMKilo,
	"KILOGRAMS": UOMKilo,
	"TON":       UOMTon,
	"TONS":      UOMTon,
	"TONNE":     UOMTon,
	"TONNES":    UOMTon,
	"MTR":       UOMMeter,
	"MTRS":      UOMMeter,
	"METER":     UOMMeter,
	"METERS":    UOMMeter,
	"METRE":     UOMMeter,
	"METRES":    UOMMeter,
	"SET":       UOMSet,
	"SETS":      UOMSet,
	"BOX":       UOMBox,
	"BOXES":     UOMBox,
	"PACK":      UOMPack,
	"PACKS":     UOMPack,
	"UNIT":      UOMUnit,
	"UNITS":     UOMUnit,
}

// CanonicalUOM maps an OCR unit token to its short canonical form.
func CanonicalUOM(token string) (string, bool) {
	u, ok := uomSynonyms[strings.ToUpper(strings.Trim(strings.TrimSpace(token), ".,"))]
	return u, ok
}
