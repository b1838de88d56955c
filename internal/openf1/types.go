// Package openf1 provides a client for the OpenF1 API.
//
// OpenF1 publishes meetings (race weekends) and sessions separately; the client
// joins them on meeting_key and yields one event per session.
package openf1

import "github.com/gauthierbraillon/pitlane/internal/aggregator"

// API response types (private - implementation detail)

type meetingRecord struct {
	MeetingKey       int    `json:"meeting_key"`
	MeetingName      string `json:"meeting_name"`
	Location         string `json:"location"`
	CountryName      string `json:"country_name"`
	CircuitShortName string `json:"circuit_short_name"`
	DateStart        string `json:"date_start"`
	Year             int    `json:"year"`
}

type sessionRecord struct {
	SessionKey       int    `json:"session_key"`
	SessionName      string `json:"session_name"`
	SessionType      string `json:"session_type"`
	MeetingKey       int    `json:"meeting_key"`
	Location         string `json:"location"`
	CountryName      string `json:"country_name"`
	CircuitShortName string `json:"circuit_short_name"`
	DateStart        string `json:"date_start"`
	Year             int    `json:"year"`
}

var sessionKinds = map[string]aggregator.SessionType{
	"practice 1":        aggregator.SessionPractice,
	"practice 2":        aggregator.SessionPractice,
	"practice 3":        aggregator.SessionPractice,
	"day 1":             aggregator.SessionPractice,
	"day 2":             aggregator.SessionPractice,
	"day 3":             aggregator.SessionPractice,
	"qualifying":        aggregator.SessionQualifying,
	"sprint qualifying": aggregator.SessionQualifying,
	"sprint shootout":   aggregator.SessionQualifying,
	"sprint":            aggregator.SessionSprint,
	"race":              aggregator.SessionRace,
}
