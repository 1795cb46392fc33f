package pricing

var (
	haiku3 = ModelPricing{
		Input: 0.25, Output: 1.25,
		CacheWrite5m: 0.30, CacheWrite1h: 0.50, CacheRead: 0.03,
	}
	haiku35 = ModelPricing{
		Input: 0.80, Output: 4.00,
		CacheWrite5m: 1.00, CacheWrite1h: 1.60, CacheRead: 0.08,
	}
	haiku35Latest = ModelPricing{
		Input: 1.00, Output: 5.00,
		CacheWrite5m: 1.25, CacheWrite1h: 2.00, CacheRead: 0.10,
	}
	opus = ModelPricing{
		Input: 15.00, Output: 75.00,
		CacheWrite5m: 18.75, CacheWrite1h: 30.00, CacheRead: 1.50,
	}
	sonnet = ModelPricing{
		Input: 3.00, Output: 15.00,
		CacheWrite5m: 3.75, CacheWrite1h: 6.00, CacheRead: 0.30,
	}
)

var offlineFamilies = []struct {
	pricing ModelPricing
	ids     []string
}{
	{haiku3, []string{"claude-3-haiku-20240307"}},
	{haiku35, []string{"claude-3-5-haiku-20241022"}},
	{haiku35Latest, []string{"claude-3-5-haiku-latest"}},
	{opus, []string{
		"claude-3-opus-latest",
		"claude-3-opus-20240229",
		"claude-opus-4-20250514",
		"claude-4-opus-20250514",
		"claude-opus-4-1",
		"claude-opus-4-1-20250805",
	}},
	{sonnet, []string{
		"claude-3-5-sonnet-latest",
		"claude-3-5-sonnet-20240620",
		"claude-3-5-sonnet-20241022",
		"claude-3-7-sonnet-latest",
		"claude-3-7-sonnet-20250219",
		"claude-sonnet-4-20250514",
		"claude-4-sonnet-20250514",
	}},
}

// OfflineTable returns a fresh copy of the compiled-in pricing table, the
// last resort when neither disk nor network can supply one.
func OfflineTable() Table {
	t := make(Table)
	for _, fam := range offlineFamilies {
		for _, id := range fam.ids {
			p := fam.pricing
			p.Name = id
			t[id] = p
		}
	}
	return t
}
