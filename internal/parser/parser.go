// Package parser turns slash-command text into a closed set of command
// kinds. Free-form text is validated here at the boundary; nothing untyped
// travels further in.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmpty         = errors.New("empty command")
	ErrNoQuestion    = errors.New("missing quoted question")
	ErrNoOptions     = errors.New("missing quoted options")
	ErrBadSchedule   = errors.New("invalid schedule command")
	ErrUnknownPrefix = errors.New("unknown command")
)

type Kind int

const (
	KindHelp Kind = iota
	KindCreate
	KindSchedule
	KindScheduleOff
)

type Command struct {
	Kind     Kind
	Create   CreateArgs
	Schedule ScheduleArgs
}

type CreateArgs struct {
	Question  string
	Options   []string
	Anonymous bool
	Limited   bool
	Limit     int
	Hidden    bool
	AddChoice bool
	MenuAtEnd bool
}

type ScheduleArgs struct {
	PollID  string
	Cron    string
	Channel string
	MaxRuns int
}

// quoted matches double-quoted segments, tolerating escaped quotes.
var quoted = regexp.MustCompile(`"((?:\\.|[^"\\])*)"`)

// quote normalization: typographic quotes typed by chat clients.
var quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`)

// Parse understands:
//
//	help
//	[anonymous] [limit N] [hidden] [add-choice] [menu-at-end] "Question" "Opt" ...
//	schedule <poll_id> "<cron>" [channel <id>] [runs <n>]
//	schedule <poll_id> off
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(quoteReplacer.Replace(text))
	if text == "" {
		return Command{}, ErrEmpty
	}

	if text == "help" {
		return Command{Kind: KindHelp}, nil
	}

	if strings.HasPrefix(text, "schedule") {
		return parseSchedule(strings.TrimSpace(text[len("schedule"):]))
	}

	return parseCreate(text)
}

func parseCreate(text string) (Command, error) {
	args := CreateArgs{}

	for {
		switch {
		case strings.HasPrefix(text, "anonymous"):
			args.Anonymous = true
			text = strings.TrimSpace(text[len("anonymous"):])
		case strings.HasPrefix(text, "hidden"):
			args.Hidden = true
			text = strings.TrimSpace(text[len("hidden"):])
		case strings.HasPrefix(text, "add-choice"):
			args.AddChoice = true
			text = strings.TrimSpace(text[len("add-choice"):])
		case strings.HasPrefix(text, "menu-at-end"):
			args.MenuAtEnd = true
			text = strings.TrimSpace(text[len("menu-at-end"):])
		case strings.HasPrefix(text, "limit"):
			args.Limited = true
			args.Limit = 1
			text = strings.TrimSpace(text[len("limit"):])
			if fields := strings.Fields(text); len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					args.Limit = n
					text = strings.TrimSpace(text[len(fields[0]):])
				}
			}
		default:
			return finishCreate(args, text)
		}
	}
}

func finishCreate(args CreateArgs, text string) (Command, error) {
	if !strings.HasPrefix(text, `"`) {
		return Command{}, ErrUnknownPrefix
	}

	matches := quoted.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Command{}, ErrNoQuestion
	}

	for _, match := range matches {
		segment := strings.ReplaceAll(match[1], `\"`, `"`)
		if args.Question == "" {
			args.Question = segment
		} else {
			args.Options = append(args.Options, segment)
		}
	}

	if args.Question == "" {
		return Command{}, ErrNoQuestion
	}
	if len(args.Options) == 0 {
		return Command{}, ErrNoOptions
	}

	return Command{Kind: KindCreate, Create: args}, nil
}

func parseSchedule(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Command{}, ErrBadSchedule
	}

	args := ScheduleArgs{PollID: fields[0]}
	rest := strings.TrimSpace(text[len(fields[0]):])

	if rest == "off" {
		return Command{Kind: KindScheduleOff, Schedule: args}, nil
	}

	match := quoted.FindStringSubmatch(rest)
	if match == nil {
		return Command{}, ErrBadSchedule
	}
	args.Cron = strings.TrimSpace(match[1])
	if args.Cron == "" {
		return Command{}, ErrBadSchedule
	}

	rest = strings.TrimSpace(strings.Replace(rest, match[0], "", 1))
	fields = strings.Fields(rest)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "channel":
			if i+1 >= len(fields) {
				return Command{}, ErrBadSchedule
			}
			i++
			args.Channel = strings.Trim(fields[i], "<>#")
		case "runs":
			if i+1 >= len(fields) {
				return Command{}, ErrBadSchedule
			}
			i++
			n, err := strconv.Atoi(fields[i])
			if err != nil || n < 1 {
				return Command{}, ErrBadSchedule
			}
			args.MaxRuns = n
		default:
			return Command{}, ErrBadSchedule
		}
	}

	return Command{Kind: KindSchedule, Schedule: args}, nil
}
