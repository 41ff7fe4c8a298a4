package notify

import (
	"fmt"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
)

const windowTimeLayout = "02 Jan 2006 15:04"

func renderSubject(kind booking.TransitionKind) string {
	switch kind {
	case booking.TransitionCreated:
		return "Reservation received"
	case booking.TransitionConfirmed:
		return "Reservation confirmed"
	case booking.TransitionRejected:
		return "Reservation rejected"
	case booking.TransitionCancelled:
		return "Reservation cancelled"
	case booking.TransitionCompleted:
		return "Thank you for your visit"
	case booking.TransitionEmergencyCancelled:
		return "Reservation cancelled: restaurant closure"
	}
	return "Reservation update"
}

func renderBody(notice booking.Notice) string {
	reservation := notice.Reservation
	body := fmt.Sprintf("Your reservation for %d guests on %s to %s is %s.",
		reservation.GuestCount.Int(),
		reservation.Window.Start().Format(windowTimeLayout),
		reservation.Window.End().Format("15:04"),
		describeKind(notice.Kind))
	if notice.Reason != "" {
		body += " Reason: " + notice.Reason
	}
	return body
}

func renderManagerBody(notice booking.Notice) string {
	reservation := notice.Reservation
	body := fmt.Sprintf("Reservation %s (%d guests, %s to %s) is %s.",
		reservation.ID.String(),
		reservation.GuestCount.Int(),
		reservation.Window.Start().Format(windowTimeLayout),
		reservation.Window.End().Format("15:04"),
		describeKind(notice.Kind))
	if notice.Reason != "" {
		body += " Reason: " + notice.Reason
	}
	return body
}

func describeKind(kind booking.TransitionKind) string {
	switch kind {
	case booking.TransitionCreated:
		return "awaiting confirmation"
	case booking.TransitionEmergencyCancelled:
		return "cancelled due to an emergency closure"
	default:
		return string(kind)
	}
}
