package invoice

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Fields maps every scalar field to its value or constants.NotFound.
type Fields map[constants.Field]string

// Get returns the value of f, or constants.NotFound when absent.
func (f Fields) Get(field constants.Field) string {
	if v, ok := f[field]; ok && v != "" {
		return v
	}
	return constants.NotFound
}

// Found counts the fields holding a real value.
func (f Fields) Found() int {
	n := 0
	for _, field := range constants.AllFields {
		if f.Get(field) != constants.NotFound {
			n++
		}
	}
	return n
}

// LineItem is one parsed invoice row. Numeric columns keep the matched text.
type LineItem struct {
	SrNo          int    `json:"sr_no"`
	ItemCode      string `json:"item_code"`
	Description   string `json:"description"`
	UOM           string `json:"uom"`
	Quantity      string `json:"quantity"`
	UnitRate      string `json:"unit_rate"`
	AmountExclVAT string `json:"amount_excl_vat"`
	VATPercent    string `json:"vat_percent"`
	VATAmount     string `json:"vat_amount"`
	AmountInclVAT string `json:"amount_incl_vat"`
}

// Valid reports whether the row carries enough identity to be emitted.
func (li LineItem) Valid() bool {
	return len([]rune(li.Description)) >= minDescriptionLen || li.ItemCode != ""
}

const minDescriptionLen = 5

// ColumnRole is the semantic meaning of a table column.
type ColumnRole int

const (
	RoleDescription ColumnRole = iota
	RoleItemCode
	RoleQuantity
	RoleUOM
	RoleRate
	RoleAmountExclVAT
	RoleVATPercent
	RoleVATAmount
	RoleAmountInclVAT
)

var roleNames = [...]string{
	RoleDescription:   "description",
	RoleItemCode:      "item_code",
	RoleQuantity:      "quantity",
	RoleUOM:           "uom",
	RoleRate:          "rate",
	RoleAmountExclVAT: "amount_excl_vat",
	RoleVATPercent:    "vat_percent",
	RoleVATAmount:     "vat_amount",
	RoleAmountInclVAT: "amount_incl_vat",
}

func (r ColumnRole) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// AllRoles lists the column roles in declaration order.
var AllRoles = []ColumnRole{
	RoleDescription, RoleItemCode, RoleQuantity, RoleUOM, RoleRate,
	RoleAmountExclVAT, RoleVATPercent, RoleVATAmount, RoleAmountInclVAT,
}

// Unresolved marks an unknown row index or column position.
const Unresolved = -1

// TableStructure is the result of header detection for one document.
// HeaderRow and EndRow index the non-blank line slice; when HeaderRow is
// resolved it is strictly less than EndRow.
type TableStructure struct {
	HeaderRow int                `json:"header_row"`
	EndRow    int                `json:"end_row"`
	Columns   map[ColumnRole]int `json:"-"`
}

func newTableStructure() TableStructure {
	ts := TableStructure{HeaderRow: Unresolved, EndRow: Unresolved, Columns: make(map[ColumnRole]int, len(AllRoles))}
	for _, r := range AllRoles {
		ts.Columns[r] = Unresolved
	}
	return ts
}

// Detected reports whether a header row was found.
func (t TableStructure) Detected() bool { return t.HeaderRow != Unresolved }

// Column returns the header token position of role, or Unresolved.
func (t TableStructure) Column(role ColumnRole) int {
	if pos, ok := t.Columns[role]; ok {
		return pos
	}
	return Unresolved
}

// Result is the full output of one engine run.
type Result struct {
	Fields    Fields         `json:"fields"`
	LineItems []LineItem     `json:"line_items"`
	Strategy  string         `json:"strategy,omitempty"`
	Table     TableStructure `json:"table"`
}
