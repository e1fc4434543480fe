package models

import "strconv"

// VoteLedger is the authoritative option -> voter-set mapping for one poll
// instance. The rendered message is a cache derived from it, never the other
// way around. Option indexes are stored as decimal strings, the way the
// document store keys maps.
type VoteLedger struct {
	Team    string              `bson:"team" json:"team"`
	Channel string              `bson:"channel" json:"channel"`
	TS      string              `bson:"ts" json:"ts"`
	Votes   map[string][]string `bson:"votes" json:"votes"`
}

func (l *VoteLedger) Voters(option int) []string {
	return l.Votes[strconv.Itoa(option)]
}

func (l *VoteLedger) SetVoters(option int, voters []string) {
	if l.Votes == nil {
		l.Votes = map[string][]string{}
	}
	l.Votes[strconv.Itoa(option)] = voters
}

func (l *VoteLedger) HasOption(option int) bool {
	_, ok := l.Votes[strconv.Itoa(option)]
	return ok
}

// HasVoted reports whether the user appears in the option's voter set.
func (l *VoteLedger) HasVoted(option int, userID string) bool {
	for _, voter := range l.Voters(option) {
		if voter == userID {
			return true
		}
	}
	return false
}

// CountVotes counts the user's votes across all options.
func (l *VoteLedger) CountVotes(userID string) int {
	count := 0
	for _, voters := range l.Votes {
		for _, voter := range voters {
			if voter == userID {
				count++
				break
			}
		}
	}
	return count
}
