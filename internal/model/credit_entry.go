package model

import "time"

type CreditType string

const (
	CreditTypeRice  CreditType = "rice"
	CreditTypeTrees CreditType = "trees"
	CreditTypeOther CreditType = "other"
)

type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

type CreditEntry struct {
	ID       string     `json:"id"`
	Date     time.Time  `json:"date"`
	Activity string     `json:"activity"`
	Credits  int64      `json:"credits"`
	Type     CreditType `json:"type"`
	Location *Location  `json:"location,omitempty"`
}
