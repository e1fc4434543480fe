package render

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"open_poll_bot/internal/db/models"
)

func testPoll() *models.Poll {
	return &models.Poll{
		ID:            "p1",
		Team:          "T1",
		Channel:       "C1",
		CreatedUserID: "owner",
		Question:      "Lunch?",
		Options:       []string{"Pizza", "Sushi"},
	}
}

func testLedger() *models.VoteLedger {
	ledger := &models.VoteLedger{Votes: map[string][]string{}}
	ledger.SetVoters(0, []string{"u1", "u2"})
	ledger.SetVoters(1, []string{})
	return ledger
}

// contextTexts collects the markdown of every context block, in order.
func contextTexts(blocks []slack.Block) []string {
	var texts []string
	for _, block := range blocks {
		context, ok := block.(*slack.ContextBlock)
		if !ok {
			continue
		}
		for _, element := range context.ContextElements.Elements {
			if text, ok := element.(*slack.TextBlockObject); ok {
				texts = append(texts, text.Text)
			}
		}
	}
	return texts
}

func TestRenderPoll_SeedRoundTrip(t *testing.T) {
	renderer := New("")
	view := renderer.RenderPoll(testPoll(), testLedger(), models.Flags{})

	seed := SeedFromBlocks(view.Blocks)

	assert.Equal(t, map[int][]string{0: {"u1", "u2"}, 1: {}}, seed)
}

func TestRenderPoll_ShowsVoters(t *testing.T) {
	renderer := New("")
	view := renderer.RenderPoll(testPoll(), testLedger(), models.Flags{})

	texts := contextTexts(view.Blocks)
	assert.Contains(t, texts, "<@u1> <@u2> 2 votes")
	assert.Contains(t, texts, "No votes")
}

func TestRenderPoll_HiddenMasksVoters(t *testing.T) {
	renderer := New("")
	view := renderer.RenderPoll(testPoll(), testLedger(), models.Flags{Hidden: true})

	texts := contextTexts(view.Blocks)
	assert.NotContains(t, texts, "<@u1> <@u2> 2 votes")
	assert.Contains(t, texts, "Votes will be revealed by the poll creator")
}

func TestRenderPoll_AnonymousShowsCountsOnly(t *testing.T) {
	definition := testPoll()
	definition.Anonymous = true

	renderer := New("")
	view := renderer.RenderPoll(definition, testLedger(), models.Flags{})

	texts := contextTexts(view.Blocks)
	assert.Contains(t, texts, "2 votes")
	assert.NotContains(t, texts, "<@u1> <@u2> 2 votes")
}

func TestRenderPoll_ClosedBadge(t *testing.T) {
	renderer := New("")
	view := renderer.RenderPoll(testPoll(), testLedger(), models.Flags{Closed: true})

	texts := contextTexts(view.Blocks)
	assert.Contains(t, texts, ":lock: Poll closed")
}

func TestRenderPoll_AddChoiceInput(t *testing.T) {
	definition := testPoll()
	definition.AddChoice = true

	renderer := New("")
	view := renderer.RenderPoll(definition, testLedger(), models.Flags{})

	var input *slack.InputBlock
	for _, block := range view.Blocks {
		if b, ok := block.(*slack.InputBlock); ok {
			input = b
		}
	}

	require.NotNil(t, input)
	assert.Equal(t, "p1", PollIDFromBlockID(input.BlockID))
	assert.True(t, input.DispatchAction)
}

func TestRenderPoll_HelpLink(t *testing.T) {
	renderer := New("https://example.com/help")
	view := renderer.RenderPoll(testPoll(), testLedger(), models.Flags{})

	texts := contextTexts(view.Blocks)
	assert.Contains(t, texts, "<https://example.com/help|Need help?>")
}

func TestVoteButtonValue_RoundTrip(t *testing.T) {
	value := VoteButtonValue{PollID: "p1", Option: 2, Voters: []string{"u1"}}

	decoded, err := DecodeVoteButtonValue(value.Encode())

	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}

func TestMenuValue_RoundTrip(t *testing.T) {
	value := MenuValue{Action: MenuClose, PollID: "p1", User: "owner"}

	decoded, err := DecodeMenuValue(value.Encode())

	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}

func TestPollIDFromBlockID(t *testing.T) {
	assert.Equal(t, "p1", PollIDFromBlockID(AddChoiceBlockID("p1")))
	assert.Empty(t, PollIDFromBlockID("something_else"))
}
