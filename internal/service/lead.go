package service

import (
	"regexp"
	"strings"
)

var (
	leadEmailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	leadPhoneRegex = regexp.MustCompile(`[\+]?[(]?[0-9]{1,3}[)]?[-\s\.]?[0-9]{3}[-\s\.]?[0-9]{4,6}`)
	meetingRegex   = regexp.MustCompile(`MEETING_REQUEST:\s*([^|]+)\s*\|\s*([^|]+)\s*\|\s*([^|]+)\s*\|\s*([^\n"]+)`)

	namePhrases = phrasePatterns("my name is ", "i'm ", "i am ", "call me ")
)

func phrasePatterns(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))
	}
	return out
}

// Lead holds the contact details a visitor volunteered in a chat message.
type Lead struct {
	Name  string
	Email string
	Phone string
}

// Empty reports whether nothing was found.
func (l Lead) Empty() bool {
	return l.Name == "" && l.Email == "" && l.Phone == ""
}

// ExtractLead scans a visitor message for an email address, a phone number
// and a self-introduction ("my name is", "i'm", "i am", "call me"). The name
// is the next one or two words.
func ExtractLead(message string) Lead {
	var lead Lead
	lead.Email = leadEmailRegex.FindString(message)
	lead.Phone = strings.TrimSpace(leadPhoneRegex.FindString(message))

	for _, phrase := range namePhrases {
		loc := phrase.FindStringIndex(message)
		if loc == nil {
			continue
		}
		words := strings.Fields(message[loc[1]:])
		if len(words) > 2 {
			words = words[:2]
		}
		if name := strings.Trim(strings.Join(words, " "), ".,!?"); name != "" {
			lead.Name = name
			break
		}
	}
	return lead
}

// MeetingMarker is a booking the assistant announced in its reply.
type MeetingMarker struct {
	Name              string
	Email             string
	PreferredDatetime string
	Topic             string
}

// ParseMeetingMarker finds a "MEETING_REQUEST: name | email | when | topic"
// line in reply. It returns the reply with the marker removed.
func ParseMeetingMarker(reply string) (MeetingMarker, string, bool) {
	m := meetingRegex.FindStringSubmatch(reply)
	if m == nil {
		return MeetingMarker{}, reply, false
	}

	marker := MeetingMarker{
		Name:              strings.TrimSpace(m[1]),
		Email:             strings.TrimSpace(m[2]),
		PreferredDatetime: strings.TrimSpace(m[3]),
		Topic:             strings.TrimSpace(m[4]),
	}

	cleaned := strings.TrimSpace(meetingRegex.ReplaceAllString(reply, ""))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, `""`))
	return marker, cleaned, true
}
