package models

// ItineraryItem is a scheduled activity stored at trips/{tripId}/itinerary/{id}
type ItineraryItem struct {
	ID       string `firestore:"-" json:"id"`
	Day      string `firestore:"day" json:"day"`   // "2일차"
	Time     string `firestore:"time" json:"time"` // "오후 2:00"
	Activity string `firestore:"activity" json:"activity"`
	Location string `firestore:"location" json:"location"`
	Group    string `firestore:"group" json:"group"`
	Revision int64  `firestore:"revision" json:"revision"`
}
