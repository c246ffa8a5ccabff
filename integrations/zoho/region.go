// Package zoho reads Zoho Books and Zoho People listings.
package zoho

import "strings"

var regionDomains = map[string]string{
	"us":  "com",
	"com": "com",
	"in":  "in",
	"eu":  "eu",
	"au":  "com.au",
	"jp":  "jp",
	"ca":  "zohocloud.ca",
	"cn":  "com.cn",
	"sa":  "sa",
}

func domain(region string) string {
	if d, ok := regionDomains[strings.ToLower(strings.TrimSpace(region))]; ok {
		return d
	}
	return "com"
}

// BooksBaseURL is the Zoho Books v3 API root for a data center region.
func BooksBaseURL(region string) string {
	return "https://www.zohoapis." + domain(region) + "/books/v3"
}

// PeopleBaseURL is the Zoho People API root for a data center region.
func PeopleBaseURL(region string) string {
	return "https://people.zoho." + domain(region) + "/people/api"
}
