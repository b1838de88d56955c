// Package catalog is the static directory of racing series pitlane recognizes.
//
// The catalog is built once at package initialization and never mutated.
// Lookups for unknown codes report "not found" rather than an error so callers
// can still display events from series the catalog does not know yet.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups series by discipline.
type Category string

const (
	CategoryFormula    Category = "formula"
	CategoryEndurance  Category = "endurance"
	CategoryTouring    Category = "touring"
	CategoryRally      Category = "rally"
	CategoryOval       Category = "oval"
	CategoryMotorcycle Category = "motorcycle"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFormula,
	CategoryEndurance,
	CategoryTouring,
	CategoryRally,
	CategoryOval,
	CategoryMotorcycle,
}

// DisplayName returns the human-readable category title.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFormula:
		return "Formula Racing"
	case CategoryEndurance:
		return "Endurance Racing"
	case CategoryTouring:
		return "Touring Cars"
	case CategoryRally:
		return "Rally"
	case CategoryOval:
		return "Oval Racing"
	case CategoryMotorcycle:
		return "Motorcycle Racing"
	default:
		return string(c)
	}
}

// Canonical series codes.
const (
	F1      = "F1"
	F2      = "F2"
	FE      = "FE"
	WEC     = "WEC"
	IMSA    = "IMSA"
	ELMS    = "ELMS"
	DTM     = "DTM"
	WRC     = "WRC"
	IndyCar = "INDYCAR"
	NASCAR  = "NASCAR"
	MotoGP  = "MOTO GP"
	Mazda   = "Mazda"
)

// Descriptor describes one recognized series.
type Descriptor struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	About       string   `json:"about"`
	Link        string   `json:"link"`
}

var descriptors = []Descriptor{
	{
		Code: F1, Name: "Formula 1", Category: CategoryFormula,
		Description: "The pinnacle of motorsport",
		Link:        "https://www.formula1.com",
		About:       "Formula One is the highest class of international racing for open-wheel single-seater formula racing cars sanctioned by the FIA. The world championship has been run since 1950.",
	},
	{
		Code: F2, Name: "Formula 2", Category: CategoryFormula,
		Description: "The pathway to Formula 1",
		Link:        "https://www.fiaformula2.com",
		About:       "The FIA Formula 2 Championship is the second-tier single-seater championship and the direct feeder series to Formula 1, run with identical cars since 2017.",
	},
	{
		Code: FE, Name: "Formula E", Category: CategoryFormula,
		Description: "Electric single-seater racing",
		Link:        "https://www.fiaformulae.com",
		About:       "Formula E is an FIA championship for electric single-seaters. Its first season started in Beijing in September 2014.",
	},
	{
		Code: WEC, Name: "World Endurance Championship", Category: CategoryEndurance,
		Description: "Including Le Mans 24 Hours",
		Link:        "https://www.fiawec.com",
		About:       "The FIA World Endurance Championship is organized by the Automobile Club de l'Ouest and sanctioned by the FIA. Its calendar is anchored by the 24 Hours of Le Mans.",
	},
	{
		Code: IMSA, Name: "IMSA SportsCar Championship", Category: CategoryEndurance,
		Description: "North American endurance racing",
		Link:        "https://www.imsa.com",
		About:       "The IMSA SportsCar Championship is a sports car series in the United States and Canada, born from the merger of the American Le Mans Series and the Rolex Sports Car Series.",
	},
	{
		Code: ELMS, Name: "European Le Mans Series", Category: CategoryEndurance,
		Description: "European endurance championship",
		Link:        "https://www.europeanlemansseries.com",
		About:       "The European Le Mans Series is an endurance series inspired by the 24 Hours of Le Mans and organized by the Automobile Club de l'Ouest since 2013.",
	},
	{
		Code: DTM, Name: "Deutsche Tourenwagen Masters", Category: CategoryTouring,
		Description: "German touring car championship",
		Link:        "https://www.dtm.com",
		About:       "DTM is a touring car series based in Germany with rounds elsewhere in Europe, regulated by the DMSB.",
	},
	{
		Code: WRC, Name: "World Rally Championship", Category: CategoryRally,
		Description: "Global rally championship",
		Link:        "https://www.wrc.com",
		About:       "The World Rally Championship is the highest level of global rallying, owned and governed by the FIA, with titles for drivers, co-drivers, manufacturers and teams.",
	},
	{
		Code: IndyCar, Name: "IndyCar Series", Category: CategoryOval,
		Description: "American open-wheel racing",
		Link:        "https://www.indycar.com",
		About:       "The IndyCar Series is the top level of American open-wheel racing and is best known for the Indianapolis 500.",
	},
	{
		Code: NASCAR, Name: "NASCAR Cup Series", Category: CategoryOval,
		Description: "Stock car racing",
		Link:        "https://www.nascar.com",
		About:       "The NASCAR Cup Series is the top series of the National Association for Stock Car Auto Racing, which began in 1949 as the Strictly Stock Division.",
	},
	{
		Code: MotoGP, Name: "MotoGP", Category: CategoryMotorcycle,
		Description: "Premier motorcycle racing",
		Link:        "https://www.motogp.com",
		About:       "The FIM MotoGP World Championship is the premier class of motorcycle road racing, sanctioned by the Fédération Internationale de Motocyclisme.",
	},
	{
		Code: Mazda, Name: "Mazda Cup", Category: CategoryTouring,
		Description: "Spec racing series",
		Link:        "https://www.mazdamotorsports.com",
		About:       "The Mazda Cup is a spec series of identical Mazda race cars and a development ladder for young drivers.",
	},
}

var byCode = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Code] = d
	}
	return m
}()

// Lookup returns the descriptor for code.
func Lookup(code string) (Descriptor, bool) {
	d, ok := byCode[code]
	return d, ok
}

// Known reports whether code is in the catalog.
func Known(code string) bool {
	_, ok := byCode[code]
	return ok
}

// Label returns the series display name, or the raw code for uncategorized series.
func Label(code string) string {
	if d, ok := byCode[code]; ok {
		return d.Name
	}
	return code
}

// All returns every descriptor in catalog order. The returned slice is a copy.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// ByCategory returns the descriptors in cat, in catalog order.
func ByCategory(cat Category) []Descriptor {
	var out []Descriptor
	for _, d := range descriptors {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Codes returns every catalog code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		codes = append(codes, d.Code)
	}
	sort.Strings(codes)
	return codes
}

// CanonicalCode maps a provider's series name through table. Keys in table are
// matched case-insensitively after trimming. Names the table does not know pass
// through uppercased so their events stay visible.
func CanonicalCode(raw string, table map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if code, ok := table[key]; ok {
		return code
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Upper(language.Und).String(strings.TrimSpace(raw))
}

// Resolve finds a catalog code from user input, accepting either the code or
// the series name in any letter case.
func Resolve(input string) (string, bool) {
	in := strings.TrimSpace(input)
	for _, d := range descriptors {
		if strings.EqualFold(d.Code, in) || strings.EqualFold(d.Name, in) {
			return d.Code, true
		}
	}
	return "", false
}
