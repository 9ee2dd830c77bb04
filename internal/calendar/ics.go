// Package calendar renders confirmed appointments as iCalendar invites.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	// Filename is the download name offered to customers.
	Filename    = "EmpireCuts-Appointment.ics"
	ContentType = "text/calendar; charset=utf-8"

	// EventDuration is the fixed length of every exported appointment.
	EventDuration = time.Hour

	fallbackHour = 10
	productID    = "-//Empire Cuts//Booking//EN"
)

var clockLayouts = []string{"2006-01-02 15:04", "2006-01-02 15:04:05"}

// Options configures a Generator.
type Options struct {
	Location  *time.Location
	Place     string
	UIDDomain string
	Now       func() time.Time
}

// Generator builds single-event calendar documents.
type Generator struct {
	location  *time.Location
	place     string
	uidDomain string
	now       func() time.Time
}

// NewGenerator fills unset options with shop defaults.
func NewGenerator(opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if strings.TrimSpace(opts.Place) == "" {
		opts.Place = "Empire Cuts Barbershop"
	}
	if strings.TrimSpace(opts.UIDDomain) == "" {
		opts.UIDDomain = "empirecuts.com"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		location:  opts.Location,
		place:     opts.Place,
		uidDomain: opts.UIDDomain,
		now:       opts.Now,
	}
}

// Artifact is a rendered invite ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
	UID         string
	Start       time.Time
	End         time.Time
}

// StartTime resolves the booking's date and time in the shop time zone. A
// missing or unreadable value yields tomorrow at 10:00 so an invite can always
// be produced.
func (g *Generator) StartTime(date, clock string) time.Time {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date != "" && clock != "" {
		for _, layout := range clockLayouts {
			if t, err := time.ParseInLocation(layout, date+" "+clock, g.location); err == nil {
				return t
			}
		}
	}
	now := g.now().In(g.location)
	y, m, d := now.Date()
	return time.Date(y, m, d+1, fallbackHour, 0, 0, 0, g.location)
}

// Generate renders an invite for serviceName at the booking's date and time.
func (g *Generator) Generate(serviceName, date, clock string) *Artifact {
	created := g.now().UTC()
	start := g.StartTime(date, clock)
	end := start.Add(EventDuration)
	uid := fmt.Sprintf("%s@%s", uuid.NewString(), g.uidDomain)

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(uid)
	event.SetDtStampTime(created)
	event.SetCreatedTime(created)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(serviceName)
	event.SetDescription(fmt.Sprintf("Your appointment for %s.", serviceName))
	event.SetLocation(g.place)

	return &Artifact{
		Filename:    Filename,
		ContentType: ContentType,
		Content:     []byte(cal.Serialize()),
		UID:         uid,
		Start:       start,
		End:         end,
	}
}
