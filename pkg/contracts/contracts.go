// Package contracts holds canonical response payloads for every schedule
// provider, shaped like the live APIs, plus a fake upstream that serves them.
//
// Adapters are tested against these payloads so that a change in field names
// or nesting shows up as a contract failure rather than as silently missing
// events.
package contracts

import (
	"net/http"
	"strings"
)

// Season is the season every contract payload describes.
const Season = 2030

// ErgastScheduleContract is a Jolpica/Ergast season calendar with one sprint
// weekend and one conventional weekend.
const ErgastScheduleContract = `{
  "MRData": {
    "xmlns": "",
    "series": "f1",
    "limit": "30",
    "offset": "0",
    "total": "2",
    "RaceTable": {
      "season": "2030",
      "Races": [
        {
          "season": "2030",
          "round": "1",
          "url": "https://en.wikipedia.org/wiki/2030_Australian_Grand_Prix",
          "raceName": "Australian Grand Prix",
          "Circuit": {
            "circuitId": "albert_park",
            "circuitName": "Albert Park Grand Prix Circuit",
            "Location": {"lat": "-37.8497", "long": "144.968", "locality": "Melbourne", "country": "Australia"}
          },
          "date": "2030-03-17",
          "time": "04:00:00Z",
          "FirstPractice": {"date": "2030-03-15", "time": "01:30:00Z"},
          "SecondPractice": {"date": "2030-03-15", "time": "05:00:00Z"},
          "ThirdPractice": {"date": "2030-03-16", "time": "01:30:00Z"},
          "Qualifying": {"date": "2030-03-16", "time": "05:00:00Z"}
        },
        {
          "season": "2030",
          "round": "2",
          "raceName": "Chinese Grand Prix",
          "Circuit": {
            "circuitId": "shanghai",
            "circuitName": "Shanghai International Circuit",
            "Location": {"locality": "Shanghai", "country": "China"}
          },
          "date": "2030-03-24",
          "time": "07:00:00Z",
          "FirstPractice": {"date": "2030-03-22", "time": "03:30:00Z"},
          "SprintQualifying": {"date": "2030-03-22", "time": "07:30:00Z"},
          "Sprint": {"date": "2030-03-23", "time": "03:00:00Z"},
          "Qualifying": {"date": "2030-03-23", "time": "07:00:00Z"}
        }
      ]
    }
  }
}`

// SportsDBSeasonContract is a TheSportsDB eventsseason.php answer. The second
// record carries only a timestamp and the third has no usable date.
const SportsDBSeasonContract = `{
  "events": [
    {
      "idEvent": "2090001",
      "strEvent": "Qatar 1812km",
      "strLeague": "FIA World Endurance Championship",
      "idLeague": "4413",
      "strSeason": "2030",
      "dateEvent": "2030-03-01",
      "strTime": "08:00:00",
      "strTimestamp": "2030-03-01T08:00:00",
      "strVenue": "Lusail International Circuit",
      "strCity": "Lusail",
      "strCountry": "Qatar"
    },
    {
      "idEvent": "2090002",
      "strEvent": "6 Hours of Imola",
      "strLeague": "FIA World Endurance Championship",
      "idLeague": "4413",
      "strSeason": "2030",
      "dateEvent": null,
      "strTime": null,
      "strTimestamp": "2030-04-21T11:00:00+00:00",
      "strVenue": "Autodromo Enzo e Dino Ferrari",
      "strCity": null,
      "strCountry": "Italy"
    },
    {
      "idEvent": "2090003",
      "strEvent": "Test Day",
      "strLeague": "FIA World Endurance Championship",
      "idLeague": "4413",
      "strSeason": "2030",
      "dateEvent": "TBC",
      "strTime": "",
      "strTimestamp": "",
      "strVenue": "",
      "strCity": "",
      "strCountry": ""
    }
  ]
}`

// SportsDBEmptyContract is what TheSportsDB returns for a league with no
// events in the requested season.
const SportsDBEmptyContract = `{"events": null}`

// OpenF1MeetingsContract is an OpenF1 /v1/meetings answer.
const OpenF1MeetingsContract = `[
  {
    "meeting_key": 1301,
    "meeting_name": "Bahrain Grand Prix",
    "meeting_official_name": "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2030",
    "location": "Sakhir",
    "country_name": "Bahrain",
    "country_code": "BRN",
    "circuit_short_name": "Sakhir",
    "date_start": "2030-04-05T11:30:00+00:00",
    "gmt_offset": "03:00:00",
    "year": 2030
  }
]`

// OpenF1SessionsContract is an OpenF1 /v1/sessions answer for the meeting above.
const OpenF1SessionsContract = `[
  {
    "session_key": 9901,
    "session_name": "Practice 1",
    "session_type": "Practice",
    "meeting_key": 1301,
    "location": "Sakhir",
    "country_name": "Bahrain",
    "circuit_short_name": "Sakhir",
    "date_start": "2030-04-05T11:30:00+00:00",
    "date_end": "2030-04-05T12:30:00+00:00",
    "year": 2030
  },
  {
    "session_key": 9905,
    "session_name": "Qualifying",
    "session_type": "Qualifying",
    "meeting_key": 1301,
    "date_start": "2030-04-06T15:00:00+00:00",
    "year": 2030
  },
  {
    "session_key": 9906,
    "session_name": "Race",
    "session_type": "Race",
    "meeting_key": 1301,
    "date_start": "2030-04-07T15:00:00+00:00",
    "year": 2030
  }
]`

// Handler serves every contract payload on the path its provider requests.
// Unknown paths answer 404.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch {
		case strings.HasPrefix(r.URL.Path, "/ergast/"):
			body = ErgastScheduleContract
		case strings.HasSuffix(r.URL.Path, "/eventsseason.php"):
			body = SportsDBSeasonContract
			if r.URL.Query().Get("id") != "4413" {
				body = SportsDBEmptyContract
			}
		case r.URL.Path == "/v1/meetings":
			body = OpenF1MeetingsContract
		case r.URL.Path == "/v1/sessions":
			body = OpenF1SessionsContract
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}
