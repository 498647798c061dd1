// Package startlist is a read-only projection joining registrations,
// check-ins, inspections and weight readings. Nothing here is persisted;
// every call recomputes from the source tables.
package startlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/apperr"
	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// Readiness buckets are mutually exclusive; an entry that is neither
// checked in nor approved stays PENDING.
type Readiness string

const (
	Ready            Readiness = "READY"
	PendingTechnical Readiness = "PENDING_TECHNICAL"
	PendingCheckIn   Readiness = "PENDING_CHECKIN"
	Pending          Readiness = "PENDING"
)

type Entry struct {
	StartNumber      int                     `json:"startNumber"`
	UserID           uuid.UUID               `json:"userId"`
	UserName         string                  `json:"userName"`
	ClassName        string                  `json:"className"`
	CheckInOutcome   models.CheckInOutcome   `json:"checkInOutcome,omitempty"`
	InspectionStatus models.InspectionStatus `json:"inspectionStatus"`
	Readiness        Readiness               `json:"readiness"`
}

type Stats struct {
	Total            int `json:"total"`
	ReadyToRace      int `json:"readyToRace"`
	PendingTechnical int `json:"pendingTechnical"`
	PendingCheckIn   int `json:"pendingCheckIn"`
}

type StartList struct {
	EventID     uuid.UUID      `json:"eventId"`
	EventTitle  string         `json:"eventTitle"`
	Entries     []Entry        `json:"entries"`
	Stats       Stats          `json:"stats"`
	ClassCounts map[string]int `json:"classCounts"`
}

// Build computes the start list for an event, ordered by start number.
func Build(db *gorm.DB, eventID uuid.UUID) (*StartList, error) {
	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	var regs []models.Registration
	err := db.Preload("User").Preload("Class").
		Where("event_id = ? AND status <> ? AND start_number IS NOT NULL", eventID, models.RegistrationCancelled).
		Order("start_number asc").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	checkInByUser := make(map[uuid.UUID]models.CheckInOutcome)
	var checkIns []models.CheckIn
	if err := db.Where("event_id = ?", eventID).Find(&checkIns).Error; err != nil {
		return nil, err
	}
	for _, c := range checkIns {
		checkInByUser[c.UserID] = c.Outcome
	}

	inspectionByNumber := make(map[int]models.InspectionStatus)
	var inspections []models.TechnicalInspection
	if err := db.Where("event_id = ?", eventID).Find(&inspections).Error; err != nil {
		return nil, err
	}
	for _, i := range inspections {
		inspectionByNumber[i.StartNumber] = i.Status
	}

	list := &StartList{
		EventID:     event.ID,
		EventTitle:  event.Title,
		ClassCounts: make(map[string]int),
	}
	for _, r := range regs {
		entry := Entry{
			StartNumber:      *r.StartNumber,
			UserID:           r.UserID,
			UserName:         r.User.Name,
			ClassName:        r.Class.Name,
			CheckInOutcome:   checkInByUser[r.UserID],
			InspectionStatus: models.InspectionPending,
		}
		if status, ok := inspectionByNumber[entry.StartNumber]; ok {
			entry.InspectionStatus = status
		}

		checkedIn := entry.CheckInOutcome == models.CheckInOK
		approved := entry.InspectionStatus == models.InspectionApproved
		switch {
		case checkedIn && approved:
			entry.Readiness = Ready
			list.Stats.ReadyToRace++
		case checkedIn:
			entry.Readiness = PendingTechnical
			list.Stats.PendingTechnical++
		case approved:
			entry.Readiness = PendingCheckIn
			list.Stats.PendingCheckIn++
		default:
			entry.Readiness = Pending
		}

		list.Entries = append(list.Entries, entry)
		list.ClassCounts[entry.ClassName]++
		list.Stats.Total++
	}
	return list, nil
}

// WriteCSV renders the start list as CSV.
func WriteCSV(w io.Writer, list *StartList) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start_number", "name", "class", "check_in", "inspection", "readiness"}); err != nil {
		return err
	}
	for _, e := range list.Entries {
		row := []string{
			strconv.Itoa(e.StartNumber),
			e.UserName,
			e.ClassName,
			string(e.CheckInOutcome),
			string(e.InspectionStatus),
			string(e.Readiness),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlTmpl = template.Must(template.New("startlist").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.EventTitle}} — start list</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
</style></head><body>
<h1>{{.EventTitle}}</h1>
<p>{{.Stats.Total}} entries — {{.Stats.ReadyToRace}} ready, {{.Stats.PendingTechnical}} pending technical, {{.Stats.PendingCheckIn}} pending check-in</p>
<table>
<tr><th>#</th><th>Name</th><th>Class</th><th>Check-in</th><th>Inspection</th><th>Readiness</th></tr>
{{range .Entries}}<tr><td>{{.StartNumber}}</td><td>{{.UserName}}</td><td>{{.ClassName}}</td><td>{{.CheckInOutcome}}</td><td>{{.InspectionStatus}}</td><td>{{.Readiness}}</td></tr>
{{end}}</table>
</body></html>
`))

// WriteHTML renders a printable start list, used as the pdf-as-html export.
func WriteHTML(w io.Writer, list *StartList) error {
	if err := htmlTmpl.Execute(w, list); err != nil {
		return fmt.Errorf("render start list: %w", err)
	}
	return nil
}
