// Package sportsdb provides a client for TheSportsDB v1 JSON API.
//
// One league id per target; the series code is derived from the league name
// each event carries.
package sportsdb

// API response types (private - implementation detail)

type seasonResponse struct {
	// Events is null when the league has nothing for the season.
	Events *[]eventRecord `json:"events"`
}

type eventRecord struct {
	ID        string `json:"idEvent"`
	Name      string `json:"strEvent"`
	League    string `json:"strLeague"`
	LeagueID  string `json:"idLeague"`
	Season    string `json:"strSeason"`
	Date      string `json:"dateEvent"`
	Time      string `json:"strTime"`
	Timestamp string `json:"strTimestamp"`
	Venue     string `json:"strVenue"`
	City      string `json:"strCity"`
	Country   string `json:"strCountry"`
}
