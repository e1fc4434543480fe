package render

import (
	"encoding/json"
	"strings"

	"github.com/slack-go/slack"
)

// Action IDs and menu action tags shared between the renderer and the
// receiver that parses interaction callbacks.
const (
	ActionVote      = "btn_vote"
	ActionMenu      = "static_select_menu"
	ActionAddChoice = "add_choice_after_post"

	MenuClose      = "btn_close"
	MenuReveal     = "btn_reveal"
	MenuDelete     = "btn_delete"
	MenuMyVotes    = "btn_my_votes"
	MenuUsersVotes = "btn_users_votes"
)

// VoteButtonValue is embedded in every option button. Voters is a cache of
// the authoritative ledger so a missing ledger document can be re-seeded
// from a live message.
type VoteButtonValue struct {
	PollID string   `json:"poll_id"`
	Option int      `json:"option"`
	Voters []string `json:"voters"`
}

// MenuValue is embedded in every menu entry.
type MenuValue struct {
	Action string `json:"action"`
	PollID string `json:"poll_id"`
	User   string `json:"user"`
}

func (v VoteButtonValue) Encode() string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func DecodeVoteButtonValue(raw string) (VoteButtonValue, error) {
	var value VoteButtonValue
	err := json.Unmarshal([]byte(raw), &value)
	return value, err
}

func (v MenuValue) Encode() string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func DecodeMenuValue(raw string) (MenuValue, error) {
	var value MenuValue
	err := json.Unmarshal([]byte(raw), &value)
	return value, err
}

// AddChoiceBlockID tags the add-choice input block with the poll it belongs
// to; input actions carry no value of their own, only the block ID.
func AddChoiceBlockID(pollID string) string {
	return "add_choice:" + pollID
}

// PollIDFromBlockID recovers the poll ID from an add-choice block ID.
func PollIDFromBlockID(blockID string) string {
	if !strings.HasPrefix(blockID, "add_choice:") {
		return ""
	}
	return strings.TrimPrefix(blockID, "add_choice:")
}

// SeedFromBlocks recovers the per-option voter lists cached in a rendered
// message, used to lazily initialize a ledger that predates its document.
func SeedFromBlocks(blocks []slack.Block) map[int][]string {
	seed := map[int][]string{}

	for _, block := range blocks {
		section, ok := block.(*slack.SectionBlock)
		if !ok || section.Accessory == nil || section.Accessory.ButtonElement == nil {
			continue
		}
		if section.Accessory.ButtonElement.ActionID != ActionVote {
			continue
		}

		var value VoteButtonValue
		if err := json.Unmarshal([]byte(section.Accessory.ButtonElement.Value), &value); err != nil {
			continue
		}

		voters := value.Voters
		if voters == nil {
			voters = []string{}
		}
		seed[value.Option] = voters
	}

	return seed
}
