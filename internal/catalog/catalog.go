// Package catalog holds the shop's fixed service menu and barber roster.
package catalog

import "strings"

// Service is one bookable menu entry.
type Service struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration string  `json:"duration"`
}

var services = []Service{
	{ID: 1, Name: "Classic Fade", Price: 35, Duration: "45 min"},
	{ID: 2, Name: "Beard Trim", Price: 20, Duration: "25 min"},
	{ID: 3, Name: "Hot Towel Shave", Price: 40, Duration: "50 min"},
	{ID: 4, Name: "The Full Works", Price: 70, Duration: "90 min"},
}

var barbers = []string{"Marcus", "Andre", "Tony"}

// Services returns a copy of the service menu in display order.
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// ServiceByID looks up a menu entry.
func ServiceByID(id int) (Service, bool) {
	for _, svc := range services {
		if svc.ID == id {
			return svc, true
		}
	}
	return Service{}, false
}

// Barbers returns the barber roster in display order.
func Barbers() []string {
	out := make([]string, len(barbers))
	copy(out, barbers)
	return out
}

// BarberByName matches a barber case-insensitively and returns the canonical name.
func BarberByName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, b := range barbers {
		if strings.EqualFold(b, name) {
			return b, true
		}
	}
	return "", false
}
