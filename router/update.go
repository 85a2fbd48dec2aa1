package router

import "strings"

// Kind enumerates every update the router understands
type Kind int

const (
	KindStart Kind = iota
	KindHelp
	KindModels
	KindModel
	KindNewChat
	KindHistory
	KindClear
	KindText
	KindPhoto
	KindUnknownCommand
)

var commands = map[string]Kind{
	"start":   KindStart,
	"help":    KindHelp,
	"models":  KindModels,
	"model":   KindModel,
	"newchat": KindNewChat,
	"history": KindHistory,
	"clear":   KindClear,
}

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindHelp:
		return "help"
	case KindModels:
		return "models"
	case KindModel:
		return "model"
	case KindNewChat:
		return "newchat"
	case KindHistory:
		return "history"
	case KindClear:
		return "clear"
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindUnknownCommand:
		return "unknown-command"
	}
	return "invalid"
}

// CommandKind maps a command keyword without the leading slash
func CommandKind(command string) Kind {
	if k, ok := commands[strings.ToLower(command)]; ok {
		return k
	}
	return KindUnknownCommand
}

// Update is a platform event reduced to what the router needs
type Update struct {
	Kind   Kind
	UserId int64
	ChatId int64
	// Text is the free text of a KindText update
	Text string
	// Args is everything after the command keyword
	Args        string
	PhotoFileId string
}
