package extract

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// BuildInvoiceJSONSchema returns the JSON-Schema of an extraction document as a generic map.
func BuildInvoiceJSONSchema() map[string]any {
	fieldProps := make(map[string]any, len(constants.AllFields))
	for _, name := range constants.FieldNames() {
		fieldProps[name] = map[string]any{"type": "string", "minLength": 1}
	}

	amount := map[string]any{"type": "string", "pattern": `^(\d+(\.\d+)?)?$`}
	itemProps := map[string]any{
		"sr_no":           map[string]any{"type": "integer", "minimum": 1},
		"item_code":       map[string]any{"type": "string"},
		"description":     map[string]any{"type": "string"},
		"uom":             map[string]any{"type": "string"},
		"quantity":        amount,
		"unit_rate":       amount,
		"amount_excl_vat": amount,
		"vat_percent":     map[string]any{"type": "string", "pattern": `^(\d+(\.\d+)?%)?$`},
		"vat_amount":      amount,
		"amount_incl_vat": amount,
	}
	roles := make([]string, 0, len(invoice.AllRoles))
	for _, r := range invoice.AllRoles {
		roles = append(roles, r.String())
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"fields", "line_items", "table"},
		"properties": map[string]any{
			"fields": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           fieldProps,
				"required":             constants.FieldNames(),
			},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           itemProps,
					"required":             []string{"sr_no", "description", "item_code"},
					"anyOf": []any{
						map[string]any{"properties": map[string]any{"description": map[string]any{"minLength": 5}}},
						map[string]any{"properties": map[string]any{"item_code": map[string]any{"minLength": 1}}},
					},
				},
			},
			"strategy": map[string]any{"type": "string"},
			"table": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"header_row": map[string]any{"type": "integer", "minimum": -1},
					"end_row":    map[string]any{"type": "integer", "minimum": -1},
					"columns": map[string]any{
						"type":          "object",
						"propertyNames": map[string]any{"enum": roles},
					},
				},
				"required": []string{"header_row", "end_row"},
			},
			"engine_version": map[string]any{"type": "string"},
			"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
}
