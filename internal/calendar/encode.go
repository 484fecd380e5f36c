package calendar

import (
	"errors"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Encoder serializes an expiration event into a calendar document.
type Encoder interface {
	Encode(ExpirationEvent) ([]byte, error)
}

// ICalEncoder produces RFC 5545 iCalendar documents with a single
// display alarm one week ahead of the event.
type ICalEncoder struct {
	ProductID string
}

// NewICalEncoder creates an encoder with the given PRODID, falling
// back to a sensible default when empty.
func NewICalEncoder(productID string) *ICalEncoder {
	if productID == "" {
		productID = "-//Coverly//Warranty Desk//EN"
	}
	return &ICalEncoder{ProductID: productID}
}

const reminderTrigger = "-P7D"

// Encode renders the event as an ICS document. The event spans one
// hour; the attached alarm fires seven days before the start.
func (e *ICalEncoder) Encode(ev ExpirationEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)

	event := cal.AddEvent(ev.UID)
	event.SetDtStampTime(time.Now().UTC())
	event.SetStartAt(ev.Start)
	event.SetEndAt(ev.Start.Add(time.Hour))
	event.SetSummary(ev.Summary)
	event.SetDescription(ev.Description)

	alarm := event.AddAlarm()
	alarm.SetAction(ics.ActionDisplay)
	alarm.SetTrigger(reminderTrigger)

	out := cal.Serialize()
	if out == "" {
		return nil, errors.New("calendar: empty serialization")
	}
	return []byte(out), nil
}
