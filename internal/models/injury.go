package models

import (
	"strings"
	"time"
)

// InjuryRecord is one player's injury status at fetch time
type InjuryRecord struct {
	Team         string
	Player       string
	Position     string
	InjuryType   string
	InjuryStatus string
	StartDate    string
	Details      string
	FetchedAt    string
}

// InjuriesResponse is the ESPN league injuries payload.
// Entries come either flat (one per player, team embedded) or grouped by
// team with the players nested under Injuries.
type InjuriesResponse struct {
	Injuries []InjuryEntry `json:"injuries"`
}

// InjuryEntry is a single injury, or a team group when Injuries is populated
type InjuryEntry struct {
	DisplayName string        `json:"displayName"`
	Injuries    []InjuryEntry `json:"injuries"`

	Team *struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
	Athlete *struct {
		FullName    string `json:"fullName"`
		DisplayName string `json:"displayName"`
		Position    *struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"position"`
	} `json:"athlete"`
	Type *struct {
		Description string `json:"description"`
	} `json:"type"`
	Status  string `json:"status"`
	Details *struct {
		Type       string `json:"type"`
		Side       string `json:"side"`
		Detail     string `json:"detail"`
		ReturnDate string `json:"returnDate"`
	} `json:"details"`
	Notes *struct {
		Items []struct {
			Headline string `json:"headline"`
		} `json:"items"`
	} `json:"notes"`
}

// FetchedAtLayout is the timestamp format of the FETCHED_AT column
const FetchedAtLayout = "2006-01-02 15:04:05"

// ToInjuryRecords flattens the payload into one record per player
func (r *InjuriesResponse) ToInjuryRecords(fetchedAt time.Time) []InjuryRecord {
	stamp := fetchedAt.Format(FetchedAtLayout)

	var records []InjuryRecord
	for _, entry := range r.Injuries {
		if len(entry.Injuries) > 0 {
			for _, nested := range entry.Injuries {
				records = append(records, nested.toRecord(entry.DisplayName, stamp))
			}
			continue
		}
		records = append(records, entry.toRecord("", stamp))
	}
	return records
}

func (e InjuryEntry) toRecord(groupTeam, fetchedAt string) InjuryRecord {
	rec := InjuryRecord{
		Team:         "Unknown",
		Player:       "Unknown",
		Position:     "N/A",
		InjuryType:   "Unknown",
		InjuryStatus: "Unknown",
		StartDate:    "Unknown",
		FetchedAt:    fetchedAt,
	}

	switch {
	case e.Team != nil && e.Team.DisplayName != "":
		rec.Team = e.Team.DisplayName
	case groupTeam != "":
		rec.Team = groupTeam
	}

	if e.Athlete != nil {
		if name := firstNonEmpty(e.Athlete.FullName, e.Athlete.DisplayName); name != "" {
			rec.Player = name
		}
		if e.Athlete.Position != nil && e.Athlete.Position.Abbreviation != "" {
			rec.Position = e.Athlete.Position.Abbreviation
		}
	}

	if status := firstNonEmpty(descriptionOf(e), e.Status); status != "" {
		rec.InjuryStatus = status
	}

	if e.Details != nil {
		base := e.Details.Type
		if base == "" {
			base = "Unknown"
		}
		extras := strings.TrimSpace(strings.Join(nonEmpty(e.Details.Detail, e.Details.Side), " "))
		if extras != "" {
			rec.InjuryType = base + " " + extras
		} else {
			rec.InjuryType = base
		}
		if e.Details.ReturnDate != "" {
			rec.StartDate = e.Details.ReturnDate
		}
	}

	if e.Notes != nil && len(e.Notes.Items) > 0 {
		rec.Details = e.Notes.Items[0].Headline
	}

	return rec
}

func descriptionOf(e InjuryEntry) string {
	if e.Type == nil {
		return ""
	}
	return e.Type.Description
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
