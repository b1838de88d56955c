// Package ergast provides a client for the Jolpica/Ergast Formula 1 API.
//
// This package enables pitlane to:
// - Fetch a season's race calendar
// - Expand each race weekend into its practice, qualifying, sprint and race sessions
// - Map the API's series slug onto the catalog's series codes
package ergast

import "github.com/gauthierbraillon/pitlane/internal/aggregator"

// API response types (private - implementation detail)

type scheduleResponse struct {
	MRData struct {
		RaceTable struct {
			Season string       `json:"season"`
			Races  []raceRecord `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type raceRecord struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Circuit  struct {
		CircuitName string `json:"circuitName"`
		Location    struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`

	FirstPractice    *sessionTime `json:"FirstPractice"`
	SecondPractice   *sessionTime `json:"SecondPractice"`
	ThirdPractice    *sessionTime `json:"ThirdPractice"`
	SprintQualifying *sessionTime `json:"SprintQualifying"`
	SprintShootout   *sessionTime `json:"SprintShootout"`
	Sprint           *sessionTime `json:"Sprint"`
	Qualifying       *sessionTime `json:"Qualifying"`
}

type sessionTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type weekendSession struct {
	label string
	kind  aggregator.SessionType
	when  *sessionTime
}

// sessions lists the weekend's sub-sessions in running order. Absent ones are nil.
func (r raceRecord) sessions() []weekendSession {
	return []weekendSession{
		{"Practice 1", aggregator.SessionPractice, r.FirstPractice},
		{"Practice 2", aggregator.SessionPractice, r.SecondPractice},
		{"Practice 3", aggregator.SessionPractice, r.ThirdPractice},
		{"Sprint Qualifying", aggregator.SessionQualifying, r.SprintQualifying},
		{"Sprint Shootout", aggregator.SessionQualifying, r.SprintShootout},
		{"Sprint", aggregator.SessionSprint, r.Sprint},
		{"Qualifying", aggregator.SessionQualifying, r.Qualifying},
	}
}
