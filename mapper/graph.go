package mapper

import (
	"encoding/json"
	"fmt"
	"strings"
)

type GraphUserRecord struct {
	ID          string
	Email       string
	DisplayName string
	JobTitle    string
	Department  string
	Enabled     bool
}

// GraphUser maps a Microsoft Graph user. mail wins over userPrincipalName for the email.
func GraphUser(raw json.RawMessage) (GraphUserRecord, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return GraphUserRecord{}, err
	}
	id := f.String("id")
	if id == "" {
		return GraphUserRecord{}, fmt.Errorf("graph user without id")
	}
	enabled := true
	if _, ok := f["accountEnabled"]; ok {
		enabled = f.Bool("accountEnabled")
	}
	return GraphUserRecord{
		ID:          id,
		Email:       strings.ToLower(f.String("mail", "userPrincipalName")),
		DisplayName: f.String("displayName"),
		JobTitle:    f.String("jobTitle"),
		Department:  f.String("department"),
		Enabled:     enabled,
	}, nil
}
