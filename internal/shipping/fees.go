// Package shipping holds the flat region fee table used at checkout.
package shipping

type Region struct {
	Name      string
	FeeCents  int
	Provinces []string
}

// DefaultFeeCents applies when the province is not in any region.
const DefaultFeeCents = 12000

var Regions = []Region{
	{
		Name:      "Metro Manila",
		FeeCents:  5000,
		Provinces: []string{"Metro Manila"},
	},
	{
		Name:     "Luzon",
		FeeCents: 8000,
		Provinces: []string{
			"Abra", "Albay", "Apayao", "Aurora", "Bataan", "Batanes", "Batangas",
			"Benguet", "Bulacan", "Cagayan", "Camarines Norte", "Camarines Sur",
			"Catanduanes", "Cavite", "Ifugao", "Ilocos Norte", "Ilocos Sur",
			"Isabela", "Kalinga", "La Union", "Laguna", "Marinduque", "Masbate",
			"Mountain Province", "Nueva Ecija", "Nueva Vizcaya", "Occidental Mindoro",
			"Oriental Mindoro", "Palawan", "Pampanga", "Pangasinan", "Quezon",
			"Quirino", "Rizal", "Romblon", "Sorsogon", "Tarlac", "Zambales",
		},
	},
	{
		Name:     "Visayas",
		FeeCents: 12000,
		Provinces: []string{
			"Aklan", "Antique", "Biliran", "Bohol", "Capiz", "Cebu", "Eastern Samar",
			"Guimaras", "Iloilo", "Leyte", "Negros Occidental", "Negros Oriental",
			"Northern Samar", "Samar", "Siquijor", "Southern Leyte",
		},
	},
	{
		Name:     "Mindanao",
		FeeCents: 15000,
		Provinces: []string{
			"Agusan del Norte", "Agusan del Sur", "Bukidnon", "Camiguin",
			"Cotabato", "Davao del Norte", "Davao del Sur", "Davao Occidental",
			"Davao Oriental", "Lanao del Norte", "Misamis Occidental",
			"Misamis Oriental", "Sarangani", "South Cotabato", "Sultan Kudarat",
			"Surigao del Norte", "Surigao del Sur", "Zamboanga del Norte",
			"Zamboanga del Sur", "Zamboanga Sibugay",
		},
	},
}

var byProvince = func() map[string]*Region {
	m := make(map[string]*Region)
	for i := range Regions {
		for _, p := range Regions[i].Provinces {
			m[p] = &Regions[i]
		}
	}
	return m
}()

func FeeCents(province string) int {
	if r, ok := byProvince[province]; ok {
		return r.FeeCents
	}
	return DefaultFeeCents
}

func RegionName(province string) string {
	if r, ok := byProvince[province]; ok {
		return r.Name
	}
	return "Unknown Region"
}
