package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

// DefaultUsage is the reply to anything that is not a command
const DefaultUsage = "Usage: +term | -term | ?"

// Command names, as reported in Result
const (
	CommandQuery     = "query"
	CommandAddTerm   = "add_term"
	CommandDelTerm   = "del_term"
	CommandSetChance = "set_chance"
	CommandUsage     = "usage"
)

// Result is the outcome of one command
type Result struct {
	Command string
	Reply   string
	Changed bool // State was mutated and persisted
}

type command struct {
	name   string
	match  func(text string) bool
	handle func(ctx context.Context, text string) (Result, error)
}

var (
	queryRe     = regexp.MustCompile(`^\?$`)
	addTermRe   = regexp.MustCompile(`^\+[a-z]+$`)
	delTermRe   = regexp.MustCompile(`^-[a-z]+$`)
	setChanceRe = regexp.MustCompile(`^(100|[1-9][0-9]?|0)%$`)
	termRe      = regexp.MustCompile(`^[a-z]+$`)
)

// ValidTerm reports whether term can be added by command
func ValidTerm(term string) bool {
	return termRe.MatchString(term)
}

// CommandUsecase dispatches admin commands in fixed priority order
type CommandUsecase struct {
	store    *StateStore
	usage    string
	commands []command
	logger   *zap.Logger
}

// NewCommandUsecase creates a new command usecase; an empty usage text
// falls back to DefaultUsage
func NewCommandUsecase(store *StateStore, usage string, logger *zap.Logger) *CommandUsecase {
	if usage == "" {
		usage = DefaultUsage
	}
	uc := &CommandUsecase{
		store:  store,
		usage:  usage,
		logger: logger.Named("command"),
	}
	// Order matters: the usage fallback must stay last
	uc.commands = []command{
		{CommandQuery, queryRe.MatchString, uc.query},
		{CommandAddTerm, addTermRe.MatchString, uc.addTerm},
		{CommandDelTerm, delTermRe.MatchString, uc.delTerm},
		{CommandSetChance, setChanceRe.MatchString, uc.setChance},
		{CommandUsage, func(string) bool { return true }, uc.help},
	}
	return uc
}

// Execute runs the first command whose predicate accepts text.
// It does not check the sender. A change that could not be saved is not
// applied, and the reply says so.
func (uc *CommandUsecase) Execute(ctx context.Context, text string) (Result, error) {
	for _, cmd := range uc.commands {
		if !cmd.match(text) {
			continue
		}
		res, err := cmd.handle(ctx, text)
		if err != nil {
			res.Reply = "Could not save, try again: " + text
			res.Changed = false
		}
		return res, err
	}
	// unreachable while the fallback is registered
	return uc.help(ctx, text)
}

// HandleDirectMessage executes dm if its sender is an admin.
// ok is false for non-admins; they get no reply.
func (uc *CommandUsecase) HandleDirectMessage(ctx context.Context, dm *domain.DirectMessage) (res Result, ok bool, err error) {
	uc.logger.Info("direct message",
		zap.String("id", dm.ID),
		zap.String("from", dm.SenderScreenName),
		zap.String("text", dm.Text),
		zap.Int("len", len(dm.Text)))

	if !uc.store.Snapshot().IsAdmin(dm.SenderScreenName) {
		return Result{}, false, nil
	}
	res, err = uc.Execute(ctx, dm.Text)
	return res, true, err
}

// Terms returns the current term list
func (uc *CommandUsecase) Terms() []string {
	return uc.store.Snapshot().Terms
}

// Chance returns the current chance percentage
func (uc *CommandUsecase) Chance() int {
	return uc.store.Snapshot().Chance
}

func (uc *CommandUsecase) query(_ context.Context, _ string) (Result, error) {
	return Result{Command: CommandQuery, Reply: strings.Join(uc.Terms(), ",")}, nil
}

func (uc *CommandUsecase) addTerm(ctx context.Context, text string) (Result, error) {
	term := strings.ToLower(text[1:])
	changed, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		return st.AddTerm(term)
	})
	res := Result{Command: CommandAddTerm, Changed: changed}
	if changed {
		res.Reply = "Term added: " + term
	} else {
		res.Reply = "Term already in list: " + term
	}
	return res, err
}

func (uc *CommandUsecase) delTerm(ctx context.Context, text string) (Result, error) {
	term := strings.ToLower(text[1:])
	changed, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		return st.RemoveTerm(term)
	})
	res := Result{Command: CommandDelTerm, Changed: changed}
	if changed {
		res.Reply = "Term removed: " + term
	} else {
		res.Reply = "Term not in list: " + term
	}
	return res, err
}

func (uc *CommandUsecase) setChance(ctx context.Context, text string) (Result, error) {
	chance, _ := strconv.Atoi(strings.TrimSuffix(text, "%"))
	_, err := uc.store.Update(ctx, func(st *domain.BotState) bool {
		st.Chance = chance
		return true
	})
	return Result{
		Command: CommandSetChance,
		Reply:   "Retweet/follow chance is now " + strconv.Itoa(chance) + "%",
		Changed: true,
	}, err
}

func (uc *CommandUsecase) help(_ context.Context, _ string) (Result, error) {
	return Result{Command: CommandUsage, Reply: uc.usage}, nil
}
