package registry

// Default returns the built-in catalogue of monitored sites: Bangladeshi job
// boards, UN and MDB procurement portals, and NGO tender pages.
func Default() *Registry {
	reg, err := New(defaultSites())
	if err != nil {
		// Built-in configs are validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return reg
}

func fields(m map[string]string) map[string]FieldSelector {
	out := make(map[string]FieldSelector, len(m))
	for k, v := range m {
		out[k] = ParseSelector(v)
	}
	return out
}

func defaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Key:        "bdjobs",
			Name:       "BDJobs",
			URL:        "https://www.bdjobs.com/",
			Strategy:   StrategyStatic,
			SearchPath: "/jobs/search/?q=consultancy",
			Container:  ".job-item",
			Fields: fields(map[string]string{
				"title":        ".job-title a",
				"organization": ".company-name",
				"description":  ".job-desc",
				"deadline":     ".deadline",
				"link":         ".job-title a@href",
				"publish_date": ".post-time",
			}),
		},
		{
			Key:       "ungm",
			Name:      "UN Global Marketplace",
			URL:       "https://www.ungm.org/Public/Notice",
			Strategy:  StrategyDynamic,
			Container: ".notice-item",
			Fields: fields(map[string]string{
				"title":        ".notice-title a",
				"organization": ".organization",
				"deadline":     ".submission-date",
				"link":         ".notice-title a@href",
				"country":      ".country",
			}),
			Filters: Filters{Country: "Bangladesh"},
		},
		{
			Key:        "pksf",
			Name:       "Palli Karma-Sahayak Foundation",
			URL:        "https://pksf.org.bd",
			Strategy:   StrategyStatic,
			SearchPath: "/category/tender/",
			Container:  "article.post",
			Fields: fields(map[string]string{
				"title":        "h2.entry-title a",
				"description":  ".entry-content",
				"publish_date": ".posted-on",
				"link":         "h2.entry-title a@href",
				"category":     ".cat-links",
			}),
		},
		{
			Key:        "carebangladesh",
			Name:       "Care Bangladesh",
			URL:        "https://www.carebangladesh.org",
			Strategy:   StrategyStatic,
			SearchPath: "/consultancy",
			Container:  ".job-item, article",
			Fields: fields(map[string]string{
				"title":       "h3 a, h2 a",
				"description": ".job-description, .entry-content",
				"deadline":    ".deadline-date",
				"link":        "h3 a@href, h2 a@href",
				"location":    ".job-location",
			}),
		},
		{
			Key:        "adb",
			Name:       "Asian Development Bank",
			URL:        "https://www.adb.org",
			Strategy:   StrategyDynamic,
			SearchPath: "/projects/country/bangladesh",
			Container:  ".project-item, .result-item",
			Fields: fields(map[string]string{
				"title":       ".title a, h3 a",
				"description": ".description",
				"country":     ".country",
				"link":        ".title a@href, h3 a@href",
				"status":      ".status",
				"sector":      ".sector",
			}),
			Filters: Filters{Country: "Bangladesh"},
		},
		{
			Key:        "worldbank",
			Name:       "World Bank",
			URL:        "https://projects.worldbank.org",
			Strategy:   StrategyDynamic,
			SearchPath: "/en/projects-operations/projects-list?os=0&countryshortname_exact=Bangladesh",
			Container:  ".project-item, .search-result-item",
			Fields: fields(map[string]string{
				"title":        ".project-title a, h3 a",
				"description":  ".project-description",
				"reference_no": ".project-id",
				"link":         ".project-title a@href, h3 a@href",
				"publish_date": ".approval-date",
				"budget_range": ".commitment-amount",
			}),
		},
		{
			Key:        "unoops",
			Name:       "UNOPS Procurement",
			URL:        "https://www.ungm.org",
			Strategy:   StrategyDynamic,
			SearchPath: "/Public/Notice?agencyEnglishAbbreviation=UNOPS",
			Container:  ".notice-item",
			Fields: fields(map[string]string{
				"title":        ".notice-title a",
				"organization": ".organization",
				"deadline":     ".submission-date",
				"link":         ".notice-title a@href",
				"country":      ".country",
				"notice_type":  ".notice-type",
			}),
		},
		{
			Key:        "undp",
			Name:       "UNDP Procurement",
			URL:        "https://procurement-notices.undp.org",
			Strategy:   StrategyDynamic,
			SearchPath: "/",
			Container:  ".notice-item, .procurement-notice",
			Fields: fields(map[string]string{
				"title":        ".title a, h3 a",
				"deadline":     ".deadline-date",
				"link":         ".title a@href, h3 a@href",
				"country":      ".country",
				"reference_no": ".reference-no",
				"publish_date": ".published-date",
			}),
		},
		{
			Key:        "unbangladesh",
			Name:       "UN Bangladesh",
			URL:        "https://bangladesh.un.org",
			Strategy:   StrategyStatic,
			SearchPath: "/en/jobs",
			Container:  ".job-item, .vacancy",
			Fields: fields(map[string]string{
				"title":        ".job-title a",
				"organization": ".organization",
				"location":     ".job-location",
				"deadline":     ".application-deadline",
				"link":         ".job-title a@href",
				"level":        ".job-level",
			}),
			Filters: Filters{Location: "Bangladesh"},
		},
	}
}
