package models

import (
	"strings"
	"time"
)

// ItineraryRecord represents a saved travel itinerary
type ItineraryRecord struct {
	ID           string     `json:"id" bson:"-"`
	CustomerName string     `json:"customer_name" bson:"customer_name"`
	Details      Details    `json:"details" bson:"details"`
	Days         []DayEntry `json:"days" bson:"itinerary"`
	TotalCost    float64    `json:"total_cost" bson:"total_cost"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

// Details is the customer/trip snapshot stored with every record.
type Details struct {
	CustomerName  string        `json:"customer_name" bson:"customer_name"`
	Persons       float64       `json:"persons" bson:"persons"`
	HotelCategory HotelCategory `json:"hotel_category" bson:"hotel_category" validate:"omitempty,hotel_category"`
	HotelName     string        `json:"hotel_name,omitempty" bson:"hotel_name,omitempty"`
	Rooms         float64       `json:"rooms" bson:"rooms"`
	Vehicle       VehicleType   `json:"vehicle" bson:"vehicle" validate:"omitempty,vehicle_type"`
	// nil when the customer was not quoted a pre-discount price
	CostBefore *float64 `json:"cost_before,omitempty" bson:"cost_before,omitempty"`
	FinalCost  float64  `json:"final_cost" bson:"final_cost"`
}

// DayEntry is one day of the schedule. Its position in the slice is the day order.
type DayEntry struct {
	ID          string `json:"id" bson:"id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
}

// CopySuffix marks the customer name of a record saved as a copy.
const CopySuffix = " (Copy)"

// NewRecord builds the record submitted to storage. The customer name is trimmed
// and mirrored into the details, and TotalCost always equals FinalCost.
func NewRecord(d Details, days []DayEntry) ItineraryRecord {
	name := strings.TrimSpace(d.CustomerName)
	d.CustomerName = name
	if days == nil {
		days = []DayEntry{}
	}
	return ItineraryRecord{
		CustomerName: name,
		Details:      d,
		Days:         days,
		TotalCost:    d.FinalCost,
	}
}

// CopyOf derives a new unsaved record with the copy marker appended to the name.
func CopyOf(d Details, days []DayEntry) ItineraryRecord {
	d.CustomerName = strings.TrimSpace(d.CustomerName) + CopySuffix
	return NewRecord(d, CloneDays(days))
}

// CloneDays returns an independent copy of days (never nil).
func CloneDays(days []DayEntry) []DayEntry {
	out := make([]DayEntry, len(days))
	copy(out, days)
	return out
}

// DayNumber is the displayed "Day N" index for the entry at position i.
func DayNumber(i int) int {
	return i + 1
}

// DisplayTitle returns the title shown for a day.
func (d DayEntry) DisplayTitle() string {
	if strings.TrimSpace(d.Title) == "" {
		return "Untitled Day"
	}
	return d.Title
}
