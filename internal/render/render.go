// Package render rebuilds a poll's message from authoritative state. The
// rendered message is always rebuilt whole, never patched, so it cannot
// drift from the ledger and flags it was derived from.
package render

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/platform"
)

type Renderer interface {
	RenderPoll(poll *models.Poll, ledger *models.VoteLedger, flags models.Flags) platform.Message
}

type blockRenderer struct {
	helpLink string
}

func New(helpLink string) Renderer {
	return &blockRenderer{helpLink: helpLink}
}

func (r *blockRenderer) RenderPoll(poll *models.Poll, ledger *models.VoteLedger, flags models.Flags) platform.Message {
	blocks := make([]slack.Block, 0, 4+3*len(poll.Options))

	question := slack.NewTextBlockObject(slack.MarkdownType, poll.Question, false, false)
	menu := r.menuElement(poll, flags)

	if poll.MenuAtEnd {
		blocks = append(blocks, slack.NewSectionBlock(question, nil, nil))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(question, nil, slack.NewAccessory(menu)))
	}

	blocks = append(blocks, slack.NewContextBlock("", r.infoElements(poll, flags)...))
	blocks = append(blocks, slack.NewDividerBlock())

	for i, option := range poll.Options {
		blocks = append(blocks, r.optionBlocks(poll, ledger, flags, i, option)...)
	}

	if poll.AddChoice {
		blocks = append(blocks, r.addChoiceBlock(poll))
	}

	if r.helpLink != "" {
		help := slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("<%s|Need help?>", r.helpLink),
			false, false,
		)
		blocks = append(blocks, slack.NewContextBlock("", help))
	}

	if poll.MenuAtEnd {
		spacer := slack.NewTextBlockObject(slack.MarkdownType, " ", false, false)
		blocks = append(blocks, slack.NewSectionBlock(spacer, nil, slack.NewAccessory(menu)))
	}

	return platform.Message{
		Blocks: blocks,
		Text:   fmt.Sprintf("Poll: %s", poll.Question),
	}
}

// infoElements builds the badge line: anonymous / limited / hidden / closed,
// ending with the creator attribution.
func (r *blockRenderer) infoElements(poll *models.Poll, flags models.Flags) []slack.MixedElement {
	elements := make([]slack.MixedElement, 0, 5)

	if poll.Anonymous {
		elements = append(elements, markdown(":sleuth_or_spy: Anonymous poll"))
	}
	if poll.Limited {
		elements = append(elements, markdown(fmt.Sprintf(":hand: Limited to %d vote%s", poll.Limit, plural(poll.Limit))))
	}
	if flags.Hidden {
		elements = append(elements, markdown(":eyes: Votes are hidden"))
	}
	if flags.Closed {
		elements = append(elements, markdown(":lock: Poll closed"))
	}

	elements = append(elements, markdown(fmt.Sprintf("Created by <@%s>", poll.CreatedUserID)))
	return elements
}

func (r *blockRenderer) optionBlocks(poll *models.Poll, ledger *models.VoteLedger, flags models.Flags, index int, option string) []slack.Block {
	voters := []string{}
	if ledger != nil {
		if v := ledger.Voters(index); v != nil {
			voters = v
		}
	}

	value := VoteButtonValue{PollID: poll.ID, Option: index, Voters: voters}
	button := slack.NewButtonBlockElement(
		ActionVote,
		value.Encode(),
		slack.NewTextBlockObject(slack.PlainTextType, "Vote", true, false),
	)

	text := slack.NewTextBlockObject(slack.MarkdownType, option, false, false)

	return []slack.Block{
		slack.NewSectionBlock(text, nil, slack.NewAccessory(button)),
		slack.NewContextBlock("", markdown(r.votersLine(poll, flags, voters))),
		slack.NewDividerBlock(),
	}
}

// votersLine renders one option's voter display: a pending-reveal
// placeholder while hidden, names plus a count otherwise, count only for
// anonymous polls.
func (r *blockRenderer) votersLine(poll *models.Poll, flags models.Flags, voters []string) string {
	if flags.Hidden {
		return "Votes will be revealed by the poll creator"
	}
	if len(voters) == 0 {
		return "No votes"
	}

	var b strings.Builder
	if !poll.Anonymous {
		for _, voter := range voters {
			fmt.Fprintf(&b, "<@%s> ", voter)
		}
	}
	fmt.Fprintf(&b, "%d vote%s", len(voters), plural(len(voters)))
	return b.String()
}

// menuElement builds the action menu; Close/Reopen and Hide/Reveal labels
// follow the current flags.
func (r *blockRenderer) menuElement(poll *models.Poll, flags models.Flags) *slack.SelectBlockElement {
	closeLabel := "Close poll"
	if flags.Closed {
		closeLabel = "Reopen poll"
	}
	revealLabel := "Hide votes"
	if flags.Hidden {
		revealLabel = "Reveal votes"
	}

	ownerGroup := slack.NewOptionGroupBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Poll actions", true, false),
		menuOption(revealLabel, MenuReveal, poll),
		menuOption("See all votes", MenuUsersVotes, poll),
		menuOption("Delete poll", MenuDelete, poll),
		menuOption(closeLabel, MenuClose, poll),
	)
	userGroup := slack.NewOptionGroupBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Your actions", true, false),
		menuOption("See my votes", MenuMyVotes, poll),
	)

	return slack.NewOptionsGroupSelectBlockElement(
		slack.OptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Menu", true, false),
		ActionMenu,
		ownerGroup,
		userGroup,
	)
}

func (r *blockRenderer) addChoiceBlock(poll *models.Poll) *slack.InputBlock {
	element := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Type a new choice and press enter", true, false),
		ActionAddChoice,
	)
	element.DispatchActionConfig = &slack.DispatchActionConfig{
		TriggerActionsOn: []string{"on_enter_pressed"},
	}

	block := slack.NewInputBlock(
		AddChoiceBlockID(poll.ID),
		slack.NewTextBlockObject(slack.PlainTextType, "Add a choice", true, false),
		nil,
		element,
	)
	block.DispatchAction = true
	return block
}

func menuOption(label, action string, poll *models.Poll) *slack.OptionBlockObject {
	value := MenuValue{Action: action, PollID: poll.ID, User: poll.CreatedUserID}
	return slack.NewOptionBlockObject(
		value.Encode(),
		slack.NewTextBlockObject(slack.PlainTextType, label, true, false),
		nil,
	)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
