package models

import "strings"

type HotelCategory string

const (
	HotelBudget      HotelCategory = "Budget"
	HotelStandard    HotelCategory = "Standard"
	Hotel3Star       HotelCategory = "3 Star"
	Hotel4Star       HotelCategory = "4 Star"
	Hotel5Star       HotelCategory = "5 Star"
	HotelLuxuryVilla HotelCategory = "Luxury Villa"
	HotelHomestay    HotelCategory = "Homestay"
)

var HotelCategories = []HotelCategory{
	HotelBudget, HotelStandard, Hotel3Star, Hotel4Star, Hotel5Star, HotelLuxuryVilla, HotelHomestay,
}

func (c HotelCategory) Valid() bool {
	for _, k := range HotelCategories {
		if k == c {
			return true
		}
	}
	return false
}

type VehicleType string

const (
	VehicleSedan          VehicleType = "Sedan (Dzire)"
	VehicleSUV            VehicleType = "SUV (Innova)"
	VehicleTempoTraveller VehicleType = "Tempo Traveller"
	VehicleBusAC          VehicleType = "Bus (AC)"
	VehicleBusNonAC       VehicleType = "Bus (Non-AC)"
)

var VehicleTypes = []VehicleType{
	VehicleSedan, VehicleSUV, VehicleTempoTraveller, VehicleBusAC, VehicleBusNonAC,
}

func (v VehicleType) Valid() bool {
	for _, k := range VehicleTypes {
		if k == v {
			return true
		}
	}
	return false
}

// CustomerField enumerates the editable fields of Details.
type CustomerField int

const (
	FieldCustomerName CustomerField = iota
	FieldPersons
	FieldHotelCategory
	FieldHotelName
	FieldRooms
	FieldVehicle
	FieldCostBefore
	FieldFinalCost
)

// CustomerFields lists every field in form order.
var CustomerFields = []CustomerField{
	FieldCustomerName, FieldPersons, FieldHotelCategory, FieldHotelName,
	FieldRooms, FieldVehicle, FieldCostBefore, FieldFinalCost,
}

var fieldKeys = map[CustomerField]string{
	FieldCustomerName:  "customer_name",
	FieldPersons:       "persons",
	FieldHotelCategory: "hotel_category",
	FieldHotelName:     "hotel_name",
	FieldRooms:         "rooms",
	FieldVehicle:       "vehicle",
	FieldCostBefore:    "cost_before",
	FieldFinalCost:     "final_cost",
}

// Key is the wire name of the field, as used in JSON and notice ids.
func (f CustomerField) Key() string {
	return fieldKeys[f]
}

// Label turns "customer_name" into "Customer Name".
func (f CustomerField) Label() string {
	words := strings.Split(f.Key(), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (f CustomerField) Numeric() bool {
	switch f {
	case FieldPersons, FieldRooms, FieldCostBefore, FieldFinalCost:
		return true
	}
	return false
}

// Optional fields never produce a "required" notice.
func (f CustomerField) Optional() bool {
	return f == FieldHotelName || f == FieldCostBefore
}

// ParseCustomerField resolves a wire name such as "final_cost".
func ParseCustomerField(key string) (CustomerField, bool) {
	for f, k := range fieldKeys {
		if k == key {
			return f, true
		}
	}
	return 0, false
}

// DayUpdate changes one field of a DayEntry. The variants are SetTitle and SetDescription.
type DayUpdate interface {
	apply(d *DayEntry)
}

type SetTitle string

func (v SetTitle) apply(d *DayEntry) { d.Title = string(v) }

type SetDescription string

func (v SetDescription) apply(d *DayEntry) { d.Description = string(v) }

// Apply returns d with u applied.
func (d DayEntry) Apply(u DayUpdate) DayEntry {
	if u != nil {
		u.apply(&d)
	}
	return d
}
