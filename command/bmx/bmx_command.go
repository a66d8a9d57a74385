package bmx

import "consolidate/command"

// RewrapCommand extends the base Command interface with bmxtranswrap options.
type RewrapCommand interface {
	command.Command
	SetWrapType(wrapType string) RewrapCommand
}
