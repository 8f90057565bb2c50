package itinerary

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tripsheet/models"
)

var (
	summaryHeaders = []string{
		"ID", "Customer Name", "Persons", "Hotel Category", "Hotel", "Rooms",
		"Vehicle", "Cost Before Discount", "Total Cost", "Days", "Created At",
	}
	dayHeaders = []string{"Itinerary ID", "Customer Name", "Day", "Title", "Description"}
)

// ExportXLSX writes one summary row per record and one row per scheduled day.
func ExportXLSX(recs []models.ItineraryRecord, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary, schedule = "Itineraries", "Days"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(schedule); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#CCFBF1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeRow(f, summary, 1, toCells(summaryHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, schedule, 1, toCells(dayHeaders)); err != nil {
		return err
	}
	_ = f.SetRowStyle(summary, 1, 1, headerStyle)
	_ = f.SetRowStyle(schedule, 1, 1, headerStyle)

	dayRow := 2
	for i, rec := range recs {
		var before any
		if rec.Details.CostBefore != nil {
			before = *rec.Details.CostBefore
		}
		hotel := rec.Details.HotelName
		if hotel == "" {
			hotel = "TBD"
		}
		row := []any{
			rec.ID, rec.CustomerName, rec.Details.Persons, string(rec.Details.HotelCategory), hotel,
			rec.Details.Rooms, string(rec.Details.Vehicle), before, rec.TotalCost, len(rec.Days),
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, summary, i+2, row); err != nil {
			return err
		}
		for j, d := range rec.Days {
			cells := []any{rec.ID, rec.CustomerName, models.DayNumber(j), d.DisplayTitle(), d.Description}
			if err := writeRow(f, schedule, dayRow, cells); err != nil {
				return err
			}
			dayRow++
		}
	}

	_ = f.SetColWidth(summary, "A", "K", 18)
	_ = f.SetColWidth(schedule, "A", "D", 18)
	_ = f.SetColWidth(schedule, "E", "E", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
