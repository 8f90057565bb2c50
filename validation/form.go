package validation

import (
	"math"
	"strconv"
	"strings"

	"tripsheet/models"
	"tripsheet/notify"
)

// Form holds the customer details as typed, before they are parsed.
// Entry and blur rules report through the notifier.
type Form struct {
	values   map[models.CustomerField]string
	notifier notify.Notifier
}

func NewForm(n notify.Notifier) *Form {
	if n == nil {
		n = notify.Discard
	}
	return &Form{values: make(map[models.CustomerField]string), notifier: n}
}

// FormFrom pre-fills a form from saved details.
func FormFrom(d models.Details, n notify.Notifier) *Form {
	f := NewForm(n)
	f.values[models.FieldCustomerName] = d.CustomerName
	f.values[models.FieldPersons] = formatNumber(d.Persons)
	f.values[models.FieldHotelCategory] = string(d.HotelCategory)
	f.values[models.FieldHotelName] = d.HotelName
	f.values[models.FieldRooms] = formatNumber(d.Rooms)
	f.values[models.FieldVehicle] = string(d.Vehicle)
	if d.CostBefore != nil {
		f.values[models.FieldCostBefore] = formatNumber(*d.CostBefore)
	}
	f.values[models.FieldFinalCost] = formatNumber(d.FinalCost)
	return f
}

// Enter stores raw as the field's value. Negative input to a numeric field is
// refused: the previous value is kept and false is returned.
func (f *Form) Enter(field models.CustomerField, raw string) bool {
	if field.Numeric() && raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v < 0 {
			f.notifier.Notify(notify.Notice{
				ID:      field.Key() + "-negative",
				Level:   notify.Failure,
				Message: "Value cannot be negative",
			})
			return false
		}
	}
	f.values[field] = raw
	return true
}

func (f *Form) Value(field models.CustomerField) string {
	return f.values[field]
}

// Blur applies the required-field rule when focus leaves field. It reports false
// when a required field is empty.
func (f *Form) Blur(field models.CustomerField) bool {
	if field.Optional() {
		return true
	}
	if validate.Var(strings.TrimSpace(f.values[field]), "required") == nil {
		return true
	}
	f.notifier.Notify(notify.Notice{
		ID:      field.Key() + "-required",
		Level:   notify.Failure,
		Message: field.Label() + " is required",
	})
	return false
}

// Details parses the form. Empty numbers become 0 and unparseable numbers NaN,
// both of which Check rejects where a positive value is required.
func (f *Form) Details() models.Details {
	d := models.Details{
		CustomerName:  f.values[models.FieldCustomerName],
		Persons:       parseNumber(f.values[models.FieldPersons]),
		HotelCategory: models.HotelCategory(strings.TrimSpace(f.values[models.FieldHotelCategory])),
		HotelName:     strings.TrimSpace(f.values[models.FieldHotelName]),
		Rooms:         parseNumber(f.values[models.FieldRooms]),
		Vehicle:       models.VehicleType(strings.TrimSpace(f.values[models.FieldVehicle])),
		FinalCost:     parseNumber(f.values[models.FieldFinalCost]),
	}
	if raw := strings.TrimSpace(f.values[models.FieldCostBefore]); raw != "" {
		v := parseNumber(raw)
		d.CostBefore = &v
	}
	return d
}

func parseNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
